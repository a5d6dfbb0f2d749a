package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/service"
)

// IntentAPI is the payment intent registry as seen by HTTP handlers.
type IntentAPI interface {
	CreateIntent(ctx context.Context, in service.CreateIntentInput) (service.IntentView, error)
	LookupPending(ctx context.Context, ownerID uint64, base decimal.Decimal) (service.IntentView, error)
	Status(ctx context.Context, ownerID uint64, amount decimal.Decimal) (service.IntentView, error)
}

// PaymentHandler exposes payment intent creation and lookup to customers
// and the public receiving wallet list.
type PaymentHandler struct {
	Intents IntentAPI
	Wallets []model.WalletAddress
}

// NewPaymentHandler panics on a nil registry.
func NewPaymentHandler(intents IntentAPI, wallets []model.WalletAddress) *PaymentHandler {
	if intents == nil {
		panic("nil intent service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Intents: intents, Wallets: wallets}
}

type createIntentRequest struct {
	Channel      string          `json:"channel"`
	Token        string          `json:"token"`
	Chain        string          `json:"chain"`
	BaseAmount   decimal.Decimal `json:"base_amount"`
	FiatCurrency string          `json:"fiat_currency"`
	CouponCodes  []string        `json:"coupon_codes"`
	TaxValue     decimal.Decimal `json:"tax_value"`
}

type intentResponse struct {
	ID           uint64         `json:"id"`
	Channel      string         `json:"channel"`
	Token        string         `json:"token"`
	Chain        string         `json:"chain"`
	BaseAmount   string         `json:"base_amount"`
	Amount       string         `json:"amount"`
	TaxValue     string         `json:"tax_value"`
	Status       string         `json:"status"`
	CouponCodes  []string       `json:"coupon_codes"`
	Coupons      []model.Coupon `json:"coupons"`
	TxHash       *string        `json:"tx_hash,omitempty"`
	SenderWallet *string        `json:"sender_wallet,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

func toIntentResponse(v service.IntentView) intentResponse {
	in := v.Intent
	codes := in.CouponCodes
	if codes == nil {
		codes = []string{}
	}
	coupons := v.Coupons
	if coupons == nil {
		coupons = []model.Coupon{}
	}
	return intentResponse{
		ID:           in.ID,
		Channel:      string(in.Channel),
		Token:        in.Token,
		Chain:        in.Chain,
		BaseAmount:   in.BaseAmount.StringFixed(2),
		Amount:       in.Amount.StringFixed(2),
		TaxValue:     in.TaxValue.StringFixed(2),
		Status:       string(in.Status),
		CouponCodes:  codes,
		Coupons:      coupons,
		TxHash:       in.TxHash,
		SenderWallet: in.SenderWallet,
		CreatedAt:    in.CreatedAt,
		ExpiresAt:    v.ExpiresAt,
	}
}

// CreateIntent handles POST /v1/payments/intents.  It returns 201 with the
// fingerprinted amount the customer must transfer.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	var body createIntentRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.Intents.CreateIntent(c.Request().Context(), service.CreateIntentInput{
		OwnerID:      userID,
		Channel:      model.Channel(strings.ToUpper(strings.TrimSpace(body.Channel))),
		Token:        body.Token,
		Chain:        body.Chain,
		BaseAmount:   body.BaseAmount,
		FiatCurrency: body.FiatCurrency,
		CouponCodes:  body.CouponCodes,
		TaxValue:     body.TaxValue,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toIntentResponse(view))
}

// LookupPending handles GET /v1/payments/intents/pending?base_amount=.  It
// returns the caller's newest pending intent for that base amount.
func (h *PaymentHandler) LookupPending(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	base, err := decimal.NewFromString(c.QueryParam("base_amount"))
	if err != nil {
		return badRequest(c, "base_amount must be a decimal")
	}
	view, err := h.Intents.LookupPending(c.Request().Context(), userID, base)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toIntentResponse(view))
}

// IntentStatus handles GET /v1/payments/intents/status?amount=.  Clients
// poll it with the fingerprinted amount until the status leaves PENDING.
func (h *PaymentHandler) IntentStatus(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	amount, err := decimal.NewFromString(c.QueryParam("amount"))
	if err != nil {
		return badRequest(c, "amount must be a decimal")
	}
	view, err := h.Intents.Status(c.Request().Context(), userID, amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toIntentResponse(view))
}

// ListWallets handles GET /v1/payments/wallets.  Optional token and chain
// query parameters narrow the list; a filter that matches nothing is 404.
func (h *PaymentHandler) ListWallets(c echo.Context) error {
	token := strings.ToUpper(strings.TrimSpace(c.QueryParam("token")))
	chain := strings.ToUpper(strings.TrimSpace(c.QueryParam("chain")))
	out := make([]model.WalletAddress, 0, len(h.Wallets))
	for _, w := range h.Wallets {
		if (token == "" || w.Token == token) && (chain == "" || w.Chain == chain) {
			out = append(out, w)
		}
	}
	if len(out) == 0 && (token != "" || chain != "") {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no wallet for token/chain"})
	}
	return c.JSON(http.StatusOK, echo.Map{"wallets": out})
}
