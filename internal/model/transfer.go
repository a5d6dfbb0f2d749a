package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferOutcome is the result recorded for a reported transfer.
type TransferOutcome string

const (
	OutcomeReceived         TransferOutcome = "RECEIVED"
	OutcomeConfirmed        TransferOutcome = "CONFIRMED"
	OutcomeNoMatchingIntent TransferOutcome = "NO_MATCHING_INTENT"
	OutcomeNoMatchingDraft  TransferOutcome = "NO_MATCHING_DRAFT"
	OutcomeInvalid          TransferOutcome = "INVALID"
	OutcomeError            TransferOutcome = "ERROR"
)

// Transfer is an on-chain token transfer reported by the upstream relay.
type Transfer struct {
	SenderWallet string
	Token        string
	Chain        string
	Amount       decimal.Decimal
	TxHash       string
}

// TransferLog is the immutable audit record written for every reported
// transfer, whether or not it matched an intent.  Only Outcome is updated
// after insertion.
type TransferLog struct {
	ID           uint64          // transfer_logs.id
	SenderWallet string          // transfer_logs.sender_wallet
	Token        string          // transfer_logs.token
	Chain        string          // transfer_logs.chain
	Amount       decimal.Decimal // transfer_logs.amount
	TxHash       string          // transfer_logs.tx_hash
	Outcome      TransferOutcome // transfer_logs.outcome
	ReceivedAt   time.Time       // transfer_logs.received_at
}
