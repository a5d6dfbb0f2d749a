package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// DraftRepo persists guest draft bookings.  Guests and the per-category
// summary are stored as JSON documents; everything the matcher filters on
// is a plain column.
type DraftRepo struct {
	db *sql.DB
}

// NewDraftRepo returns a new DraftRepo bound to the given database.
func NewDraftRepo(db *sql.DB) *DraftRepo { return &DraftRepo{db: db} }

const draftColumns = `id, reservation_id, intent_id, owner_id, hotel_code, hotel_name, rate_plan_code,
        room_type_code, check_in, check_out, rooms, guests, category_summary, contact_name,
        contact_email, contact_phone, total_amount, token, chain, status, tx_hash, sender_wallet, created_at`

// Create inserts the draft and populates its generated ID.  A duplicate
// reservation id yields ErrConflict.
func (r *DraftRepo) Create(ctx context.Context, d *model.GuestDraftBooking) error {
	guests, err := marshalJSON(d.Guests)
	if err != nil {
		return err
	}
	summary, err := marshalJSON(d.Summary)
	if err != nil {
		return err
	}
	const q = `INSERT INTO guest_drafts
        (reservation_id, intent_id, owner_id, hotel_code, hotel_name, rate_plan_code, room_type_code,
         check_in, check_out, rooms, guests, category_summary, contact_name, contact_email, contact_phone,
         total_amount, token, chain, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		d.ReservationID, d.IntentID, d.OwnerID, d.HotelCode, d.HotelName, d.RatePlanCode, d.RoomTypeCode,
		d.CheckIn.Format(dateLayout), d.CheckOut.Format(dateLayout), d.Rooms, guests, summary,
		d.Contact.Name, d.Contact.Email, d.Contact.Phone,
		d.TotalAmount, d.Token, d.Chain, d.Status, dbTime(d.CreatedAt), dbTime(d.CreatedAt),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert draft: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// FindProcessingForIntent returns the newest PROCESSING draft that refers
// to intentID and whose total equals amount.  It returns nil, nil when no
// such draft exists.
func (r *DraftRepo) FindProcessingForIntent(ctx context.Context, intentID uint64, amount decimal.Decimal) (*model.GuestDraftBooking, error) {
	q := `SELECT ` + draftColumns + ` FROM guest_drafts
        WHERE intent_id = ? AND status = 'PROCESSING' AND total_amount = ?
        ORDER BY created_at DESC, id DESC LIMIT 1`
	d, err := scanDraft(r.db.QueryRowContext(ctx, q, intentID, amount))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// GetByID returns the draft with the given id or nil, nil.
func (r *DraftRepo) GetByID(ctx context.Context, id uint64) (*model.GuestDraftBooking, error) {
	d, err := scanDraft(r.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM guest_drafts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// CancelStale marks every PROCESSING draft created before cutoff as
// cancelled and returns how many rows changed.
func (r *DraftRepo) CancelStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE guest_drafts SET status = 'CANCELLED', updated_at = ?
         WHERE status = 'PROCESSING' AND created_at < ?`,
		dbTime(now), dbTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("cancel stale drafts: %w", err)
	}
	return res.RowsAffected()
}

func scanDraft(row rowScanner) (*model.GuestDraftBooking, error) {
	var (
		d       model.GuestDraftBooking
		guests  []byte
		summary []byte
		status  string
		txHash  sql.NullString
		sender  sql.NullString
	)
	if err := row.Scan(
		&d.ID, &d.ReservationID, &d.IntentID, &d.OwnerID, &d.HotelCode, &d.HotelName, &d.RatePlanCode,
		&d.RoomTypeCode, &d.CheckIn, &d.CheckOut, &d.Rooms, &guests, &summary, &d.Contact.Name,
		&d.Contact.Email, &d.Contact.Phone, &d.TotalAmount, &d.Token, &d.Chain, &status, &txHash, &sender, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(guests, &d.Guests); err != nil {
		return nil, fmt.Errorf("decode guests: %w", err)
	}
	if err := json.Unmarshal(summary, &d.Summary); err != nil {
		return nil, fmt.Errorf("decode category summary: %w", err)
	}
	d.Status = model.DraftStatus(status)
	d.TxHash = nullString(txHash)
	d.SenderWallet = nullString(sender)
	return &d, nil
}
