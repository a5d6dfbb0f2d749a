package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// InventoryRepo is the room inventory ledger.  Reserve and Release touch
// every night of a stay with a single statement inside one transaction, so
// a stay is either fully decremented or left untouched.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns a new InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Reserve decrements available by count on every night in
// [checkIn, checkOut).  The UPDATE only matches nights that still have at
// least count rooms; if fewer rows change than there are nights (a night
// is short or has no record) the transaction is rolled back and
// model.ErrInsufficientInventory is returned.
func (r *InventoryRepo) Reserve(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time, count int, now time.Time) error {
	nights, err := stayRange(checkIn, checkOut, count)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `UPDATE room_inventory SET available = available - ?, last_modified = ?
        WHERE hotel_code = ? AND room_type = ? AND stay_date >= ? AND stay_date < ? AND available >= ?`
	res, err := tx.ExecContext(ctx, q, count, dbTime(now), hotel, roomType,
		checkIn.Format(dateLayout), checkOut.Format(dateLayout), count)
	if err != nil {
		return fmt.Errorf("reserve inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(nights) {
		return model.ErrInsufficientInventory
	}
	return tx.Commit()
}

// Release increments available by count on every night in
// [checkIn, checkOut).  Nights without a record are skipped and logged;
// a release never fails because of them.
func (r *InventoryRepo) Release(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time, count int, now time.Time) error {
	nights, err := stayRange(checkIn, checkOut, count)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `UPDATE room_inventory SET available = available + ?, last_modified = ?
        WHERE hotel_code = ? AND room_type = ? AND stay_date >= ? AND stay_date < ?`
	res, err := tx.ExecContext(ctx, q, count, dbTime(now), hotel, roomType,
		checkIn.Format(dateLayout), checkOut.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("release inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(nights) {
		slog.Warn("inventory release found missing nights", "hotel", hotel, "room_type", roomType,
			"check_in", checkIn.Format(dateLayout), "nights", nights, "updated", n)
	}
	return tx.Commit()
}

// Availability lists the inventory nights for a stay ordered by date.
// Nights without a record are simply absent from the result.
func (r *InventoryRepo) Availability(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time) ([]model.InventoryRecord, error) {
	const q = `SELECT hotel_code, room_type, stay_date, available, last_modified FROM room_inventory
        WHERE hotel_code = ? AND room_type = ? AND stay_date >= ? AND stay_date < ?
        ORDER BY stay_date`
	rows, err := r.db.QueryContext(ctx, q, hotel, roomType, checkIn.Format(dateLayout), checkOut.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.InventoryRecord
	for rows.Next() {
		var rec model.InventoryRecord
		if err := rows.Scan(&rec.HotelCode, &rec.RoomType, &rec.StayDate, &rec.Available, &rec.LastModified); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Upsert sets the available count for one night, creating the record if
// needed.  It is used by inventory sync jobs and seeding.
func (r *InventoryRepo) Upsert(ctx context.Context, rec model.InventoryRecord) error {
	const q = `INSERT INTO room_inventory (hotel_code, room_type, stay_date, available, last_modified)
        VALUES (?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE available = VALUES(available), last_modified = VALUES(last_modified)`
	_, err := r.db.ExecContext(ctx, q, rec.HotelCode, rec.RoomType, rec.StayDate.Format(dateLayout),
		rec.Available, dbTime(rec.LastModified))
	return err
}

func stayRange(checkIn, checkOut time.Time, count int) (int, error) {
	if count <= 0 {
		return 0, model.ErrInvalidQuantity
	}
	nights := model.NightCount(checkIn, checkOut)
	if nights == 0 {
		return 0, model.ErrInvalidDateRange
	}
	return nights, nil
}
