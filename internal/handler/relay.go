package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
	"github.com/iliyamo/hotel-crypto-reservation/internal/service"
)

// Reconciler applies transfers reported by the relay.
type Reconciler interface {
	Reconcile(ctx context.Context, t model.Transfer) (service.ReconcileResult, error)
}

// RelayHandler receives on-chain transfers from the upstream watcher.
type RelayHandler struct {
	Matcher Reconciler
}

// NewRelayHandler panics on a nil matcher.
func NewRelayHandler(m Reconciler) *RelayHandler {
	if m == nil {
		panic("nil matcher passed to NewRelayHandler")
	}
	return &RelayHandler{Matcher: m}
}

type transferRequest struct {
	SenderWallet string          `json:"sender_wallet"`
	Token        string          `json:"token"`
	Chain        string          `json:"chain"`
	Amount       decimal.Decimal `json:"amount"`
	TxHash       string          `json:"tx_hash"`
}

type reconcileResponse struct {
	TransferID        uint64 `json:"transfer_id"`
	Outcome           string `json:"outcome"`
	IntentID          uint64 `json:"intent_id,omitempty"`
	DraftID           uint64 `json:"draft_id,omitempty"`
	ReservationID     string `json:"reservation_id,omitempty"`
	ReservationStatus string `json:"reservation_status,omitempty"`
	BookingError      string `json:"booking_error,omitempty"`
}

// ReportTransfer handles POST /v1/relay/transfers.
//
// A confirmed payment is 200 even when the booking saga then failed: the
// money was accepted and the saga state is in the response for follow-up.
// Transfers with no matching intent or draft are logged and answered 202
// so the relay may report them again later.
func (h *RelayHandler) ReportTransfer(c echo.Context) error {
	var body transferRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Matcher.Reconcile(c.Request().Context(), model.Transfer{
		SenderWallet: body.SenderWallet,
		Token:        body.Token,
		Chain:        body.Chain,
		Amount:       body.Amount,
		TxHash:       body.TxHash,
	})

	out := reconcileResponse{TransferID: res.TransferID, Outcome: string(res.Outcome)}
	if res.Intent != nil {
		out.IntentID = res.Intent.ID
	}
	if res.Draft != nil {
		out.DraftID = res.Draft.ID
	}
	if res.Reservation != nil {
		out.ReservationID = res.Reservation.ID
		out.ReservationStatus = string(res.Reservation.Status)
	}

	switch {
	case err == nil:
		return c.JSON(http.StatusOK, out)
	case errors.Is(err, model.ErrNoMatchingIntent), errors.Is(err, model.ErrNoMatchingDraft):
		return c.JSON(http.StatusAccepted, out)
	case res.Outcome == model.OutcomeConfirmed:
		out.BookingError = err.Error()
		return c.JSON(http.StatusOK, out)
	}
	return respondError(c, err)
}
