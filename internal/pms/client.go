// Package pms is the HTTP JSON client of the hotel property management
// system.  It submits reservations built from confirmed guest drafts and
// cancels them again when the booking saga compensates or a customer
// cancels.
package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Guest is one traveller as the PMS expects it.
type Guest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
	AgeCode   string `json:"age_code"`
}

// GuestCount is the per age-qualifying code head count.
type GuestCount struct {
	AgeCode string `json:"age_code"`
	Count   int    `json:"count"`
}

// Reservation is the payload of a reservation submission.  ReservationID
// is generated locally and doubles as the idempotency key on the PMS side.
type Reservation struct {
	ReservationID string          `json:"reservation_id"`
	HotelCode     string          `json:"hotel_code"`
	RatePlanCode  string          `json:"rate_plan_code"`
	RoomTypeCode  string          `json:"room_type_code"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	Rooms         int             `json:"rooms"`
	Guests        []Guest         `json:"guests"`
	GuestCounts   []GuestCount    `json:"guest_counts"`
	ContactName   string          `json:"contact_name"`
	ContactEmail  string          `json:"contact_email"`
	ContactPhone  string          `json:"contact_phone,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaymentRef    string          `json:"payment_ref"`
}

// ErrRejected is returned when the PMS answers with a non-2xx status.
var ErrRejected = errors.New("pms rejected request")

// Client talks to the PMS over HTTP.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client.  A zero timeout defaults to 10s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type submitResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// SubmitReservation creates the reservation and returns the PMS id.
func (c *Client) SubmitReservation(ctx context.Context, r Reservation) (string, error) {
	var out submitResponse
	if err := c.doRequest(ctx, http.MethodPost, "/reservations", r, &out); err != nil {
		return "", err
	}
	if out.ReservationID == "" {
		return "", fmt.Errorf("%w: empty reservation id", ErrRejected)
	}
	return out.ReservationID, nil
}

// CancelReservation cancels the reservation with the given PMS id.
func (c *Client) CancelReservation(ctx context.Context, externalID string) error {
	if externalID == "" {
		return errors.New("pms: external id required")
	}
	return c.doRequest(ctx, http.MethodPost, "/reservations/"+url.PathEscape(externalID)+"/cancel", nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload, out any) error {
	if c == nil {
		return fmt.Errorf("pms client not configured")
	}
	var body io.Reader = bytes.NewReader(nil)
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s status=%d body=%s", ErrRejected, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
