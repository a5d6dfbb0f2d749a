package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// StaticConverter converts fiat amounts into token amounts using fixed
// rates expressed as fiat units per token.  Only the configured quote
// currency is accepted.
type StaticConverter struct {
	quote string
	rates map[string]decimal.Decimal
}

// NewStaticConverter returns a converter for the quote currency.
func NewStaticConverter(quote string, rates map[string]decimal.Decimal) *StaticConverter {
	return &StaticConverter{quote: strings.ToUpper(quote), rates: rates}
}

// Convert returns amount/rate rounded to cents.
func (c *StaticConverter) Convert(_ context.Context, amount decimal.Decimal, fiat, token string) (decimal.Decimal, error) {
	if !strings.EqualFold(fiat, c.quote) {
		return decimal.Zero, fmt.Errorf("%w: unsupported currency %q", model.ErrInvalidAmount, fiat)
	}
	rate, ok := c.rates[strings.ToUpper(token)]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", model.ErrInvalidAmount, token)
	}
	return amount.Div(rate).Round(2), nil
}
