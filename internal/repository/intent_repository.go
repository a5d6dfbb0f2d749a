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

// IntentRepo provides persistence for payment intents.  Status changes are
// always conditional on the current status so concurrent matchers and the
// sweeper never overwrite each other.  All timestamps are stored in UTC.
type IntentRepo struct {
	db *sql.DB
}

// NewIntentRepo returns a new IntentRepo bound to the given database.
func NewIntentRepo(db *sql.DB) *IntentRepo { return &IntentRepo{db: db} }

const intentColumns = `id, owner_id, channel, token, chain, base_amount, amount, status,
        coupon_codes, tax_value, tx_hash, sender_wallet, created_at, updated_at`

// Create inserts a new intent and populates its generated ID.
func (r *IntentRepo) Create(ctx context.Context, in *model.PaymentIntent) error {
	codes, err := marshalJSON(in.CouponCodes)
	if err != nil {
		return err
	}
	const q = `INSERT INTO payment_intents
        (owner_id, channel, token, chain, base_amount, amount, status, coupon_codes, tax_value, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		in.OwnerID, in.Channel, in.Token, in.Chain, in.BaseAmount, in.Amount, in.Status,
		codes, in.TaxValue, dbTime(in.CreatedAt), dbTime(in.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert intent: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	in.ID = uint64(id)
	in.UpdatedAt = in.CreatedAt
	return nil
}

// PendingAmountExists reports whether a pending intent for token/chain with
// exactly amount was created at or after since.
func (r *IntentRepo) PendingAmountExists(ctx context.Context, token, chain string, amount decimal.Decimal, since time.Time) (bool, error) {
	const q = `SELECT 1 FROM payment_intents
        WHERE token = ? AND chain = ? AND status = 'PENDING' AND amount = ? AND created_at >= ?
        LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, token, chain, amount, dbTime(since)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindPendingByTransfer returns the newest pending intent matching a
// transfer's token, chain and amount created at or after since.  It returns
// nil, nil when nothing matches.
func (r *IntentRepo) FindPendingByTransfer(ctx context.Context, token, chain string, amount decimal.Decimal, since time.Time) (*model.PaymentIntent, error) {
	q := `SELECT ` + intentColumns + ` FROM payment_intents
        WHERE token = ? AND chain = ? AND status = 'PENDING' AND amount = ? AND created_at >= ?
        ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.one(ctx, q, token, chain, amount, dbTime(since))
}

// FindPendingByOwnerBase returns the owner's newest pending intent with the
// given base (pre-fingerprint) amount created at or after since.
func (r *IntentRepo) FindPendingByOwnerBase(ctx context.Context, ownerID uint64, base decimal.Decimal, since time.Time) (*model.PaymentIntent, error) {
	q := `SELECT ` + intentColumns + ` FROM payment_intents
        WHERE owner_id = ? AND status = 'PENDING' AND base_amount = ? AND created_at >= ?
        ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.one(ctx, q, ownerID, base, dbTime(since))
}

// FindLatestByOwnerAmount returns the owner's newest intent with the given
// fingerprinted amount regardless of status.
func (r *IntentRepo) FindLatestByOwnerAmount(ctx context.Context, ownerID uint64, amount decimal.Decimal) (*model.PaymentIntent, error) {
	q := `SELECT ` + intentColumns + ` FROM payment_intents
        WHERE owner_id = ? AND amount = ?
        ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.one(ctx, q, ownerID, amount)
}

// GetByID returns the intent with the given id or nil, nil.
func (r *IntentRepo) GetByID(ctx context.Context, id uint64) (*model.PaymentIntent, error) {
	return r.one(ctx, `SELECT `+intentColumns+` FROM payment_intents WHERE id = ?`, id)
}

// ConfirmWithDraft promotes an intent from PENDING and its draft from
// PROCESSING to CONFIRMED in one transaction, stamping the transaction hash
// and sender wallet on both.  Each UPDATE is guarded by the expected source
// status; if either affects zero rows the transaction is rolled back and
// ErrStaleState is returned.
func (r *IntentRepo) ConfirmWithDraft(ctx context.Context, intentID, draftID uint64, txHash, sender string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`UPDATE payment_intents SET status = 'CONFIRMED', tx_hash = ?, sender_wallet = ?, updated_at = ?
         WHERE id = ? AND status = 'PENDING'`,
		txHash, sender, dbTime(at), intentID)
	if err != nil {
		return fmt.Errorf("confirm intent: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrStaleState
	}
	res, err = tx.ExecContext(ctx,
		`UPDATE guest_drafts SET status = 'CONFIRMED', tx_hash = ?, sender_wallet = ?, updated_at = ?
         WHERE id = ? AND status = 'PROCESSING'`,
		txHash, sender, dbTime(at), draftID)
	if err != nil {
		return fmt.Errorf("confirm draft: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrStaleState
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CancelStale marks every pending intent created before cutoff as
// cancelled and returns how many rows changed.
func (r *IntentRepo) CancelStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_intents SET status = 'CANCELLED', updated_at = ?
         WHERE status = 'PENDING' AND created_at < ?`,
		dbTime(now), dbTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("cancel stale intents: %w", err)
	}
	return res.RowsAffected()
}

func (r *IntentRepo) one(ctx context.Context, q string, args ...any) (*model.PaymentIntent, error) {
	in, err := scanIntent(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func scanIntent(row rowScanner) (*model.PaymentIntent, error) {
	var (
		in      model.PaymentIntent
		codes   sql.NullString
		txHash  sql.NullString
		sender  sql.NullString
		channel string
		status  string
	)
	if err := row.Scan(
		&in.ID, &in.OwnerID, &channel, &in.Token, &in.Chain, &in.BaseAmount, &in.Amount, &status,
		&codes, &in.TaxValue, &txHash, &sender, &in.CreatedAt, &in.UpdatedAt,
	); err != nil {
		return nil, err
	}
	in.Channel = model.Channel(channel)
	in.Status = model.IntentStatus(status)
	if codes.Valid && codes.String != "" && codes.String != "null" {
		if err := json.Unmarshal([]byte(codes.String), &in.CouponCodes); err != nil {
			return nil, fmt.Errorf("decode coupon codes: %w", err)
		}
	}
	in.TxHash = nullString(txHash)
	in.SenderWallet = nullString(sender)
	return &in, nil
}
