package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// TransferRepo writes the audit log of every transfer reported by the relay.
type TransferRepo struct {
	db *sql.DB
}

// NewTransferRepo returns a new TransferRepo bound to the given database.
func NewTransferRepo(db *sql.DB) *TransferRepo { return &TransferRepo{db: db} }

// Insert appends a transfer log and populates its generated ID.
func (r *TransferRepo) Insert(ctx context.Context, t *model.TransferLog) error {
	const q = `INSERT INTO transfer_logs (sender_wallet, token, chain, amount, tx_hash, outcome, received_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.SenderWallet, t.Token, t.Chain, t.Amount, t.TxHash, t.Outcome, dbTime(t.ReceivedAt))
	if err != nil {
		return fmt.Errorf("insert transfer log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// SetOutcome records how a logged transfer was resolved.
func (r *TransferRepo) SetOutcome(ctx context.Context, id uint64, outcome model.TransferOutcome) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transfer_logs SET outcome = ? WHERE id = ?`, outcome, id)
	return err
}
