package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// CouponRepo reads coupon metadata from the platform and hotel coupon
// tables.  It never writes; coupons are managed elsewhere.
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo returns a new CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

// PlatformCoupons returns the platform coupons whose code is in codes.
func (r *CouponRepo) PlatformCoupons(ctx context.Context, codes []string) ([]model.Coupon, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	q := `SELECT code, description, discount_type, discount_value, '' FROM platform_coupons WHERE code IN (` +
		placeholders(len(codes)) + `)`
	return r.query(ctx, q, model.CouponPlatform, codes)
}

// HotelCoupons returns the hotel coupons whose code is in codes.
func (r *CouponRepo) HotelCoupons(ctx context.Context, codes []string) ([]model.Coupon, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	q := `SELECT code, description, discount_type, discount_value, hotel_code FROM hotel_coupons WHERE code IN (` +
		placeholders(len(codes)) + `)`
	return r.query(ctx, q, model.CouponHotel, codes)
}

func (r *CouponRepo) query(ctx context.Context, q string, src model.CouponSource, codes []string) ([]model.Coupon, error) {
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Coupon
	for rows.Next() {
		c := model.Coupon{Source: src}
		if err := rows.Scan(&c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.HotelCode); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
