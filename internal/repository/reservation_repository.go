package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// ReservationRepo stores the state of each booking confirmation saga.
// Transitions are conditional on the current status; a transition that
// finds the row in a different state returns ErrStaleState.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationPatch lists optional columns written alongside a status
// transition.  Nil fields are left unchanged.
type ReservationPatch struct {
	ExternalID    *string
	FailureReason *string
	CancelReason  *string
}

const reservationColumns = `id, draft_id, intent_id, owner_id, external_id, hotel_code, room_type,
        check_in, check_out, rooms, contact_email, status, failure_reason, cancel_reason, created_at, updated_at`

// Create inserts a new reservation row.  A duplicate id yields ErrConflict.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
        (id, draft_id, intent_id, owner_id, external_id, hotel_code, room_type, check_in, check_out,
         rooms, contact_email, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.DraftID, res.IntentID, res.OwnerID, toNull(res.ExternalID), res.HotelCode, res.RoomType,
		res.CheckIn.Format(dateLayout), res.CheckOut.Format(dateLayout), res.Rooms, res.ContactEmail,
		res.Status, dbTime(res.CreatedAt), dbTime(res.CreatedAt),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	res.UpdatedAt = res.CreatedAt
	return nil
}

// Get returns the reservation with the given id or nil, nil.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	var (
		res     model.Reservation
		ext     sql.NullString
		failure sql.NullString
		cancel  sql.NullString
		status  string
	)
	err := row.Scan(&res.ID, &res.DraftID, &res.IntentID, &res.OwnerID, &ext, &res.HotelCode, &res.RoomType,
		&res.CheckIn, &res.CheckOut, &res.Rooms, &res.ContactEmail, &status, &failure, &cancel,
		&res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	res.ExternalID = nullString(ext)
	res.FailureReason = nullString(failure)
	res.CancelReason = nullString(cancel)
	return &res, nil
}

// Transition moves a reservation from one status to another, writing the
// non-nil patch columns in the same statement.
func (r *ReservationRepo) Transition(ctx context.Context, id string, from, to model.ReservationStatus, patch ReservationPatch, at time.Time) error {
	const q = `UPDATE reservations SET status = ?,
            external_id = COALESCE(?, external_id),
            failure_reason = COALESCE(?, failure_reason),
            cancel_reason = COALESCE(?, cancel_reason),
            updated_at = ?
        WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, toNull(patch.ExternalID), toNull(patch.FailureReason),
		toNull(patch.CancelReason), dbTime(at), id, from)
	if err != nil {
		return fmt.Errorf("transition reservation %s %s->%s: %w", id, from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleState
	}
	return nil
}
