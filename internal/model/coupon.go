package model

import "github.com/shopspring/decimal"

// CouponSource tells which table a coupon came from.
type CouponSource string

const (
	CouponPlatform CouponSource = "PLATFORM"
	CouponHotel    CouponSource = "HOTEL"
)

// Coupon is read-only coupon metadata echoed back on intent creation.
// Discount computation happens upstream.
type Coupon struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	HotelCode     string          `json:"hotel_code,omitempty"`
	Source        CouponSource    `json:"source"`
}
