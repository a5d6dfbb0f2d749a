package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntentStatus is the lifecycle state of a payment intent.  Transitions
// only move forward: PENDING -> CONFIRMED or PENDING -> CANCELLED.
type IntentStatus string

const (
	IntentPending   IntentStatus = "PENDING"
	IntentConfirmed IntentStatus = "CONFIRMED"
	IntentCancelled IntentStatus = "CANCELLED"
)

// Channel identifies the client surface that requested the intent.
type Channel string

const (
	ChannelMobile Channel = "MOBILE"
	ChannelWeb    Channel = "WEB"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool { return c == ChannelMobile || c == ChannelWeb }

// PaymentIntent identifies one crypto payment attempt.  The fingerprinted
// Amount is the only key a payer's transfer carries besides token and
// chain, so it must be unique among recent pending intents of the same
// token/chain.  Rows are never deleted; they form the payment audit trail.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – customer who requested the intent.
//  Channel      – MOBILE or WEB.
//  Token        – token symbol (e.g. USDT).
//  Chain        – chain identifier (e.g. TRON, ETH).
//  BaseAmount   – converted amount before fingerprinting.
//  Amount       – fingerprinted amount the payer must send (immutable).
//  Status       – PENDING, CONFIRMED or CANCELLED.
//  CouponCodes  – coupon codes applied by the client.
//  TaxValue     – tax amount reported by the client.
//  TxHash       – observed transaction hash, set on confirmation.
//  SenderWallet – payer wallet, set on confirmation.
//  CreatedAt    – creation timestamp (start of the disambiguation window).
//  UpdatedAt    – last transition timestamp.
type PaymentIntent struct {
	ID           uint64          // payment_intents.id
	OwnerID      uint64          // payment_intents.owner_id
	Channel      Channel         // payment_intents.channel
	Token        string          // payment_intents.token
	Chain        string          // payment_intents.chain
	BaseAmount   decimal.Decimal // payment_intents.base_amount
	Amount       decimal.Decimal // payment_intents.amount
	Status       IntentStatus    // payment_intents.status
	CouponCodes  []string        // payment_intents.coupon_codes (JSON)
	TaxValue     decimal.Decimal // payment_intents.tax_value
	TxHash       *string         // payment_intents.tx_hash (nullable)
	SenderWallet *string         // payment_intents.sender_wallet (nullable)
	CreatedAt    time.Time       // payment_intents.created_at
	UpdatedAt    time.Time       // payment_intents.updated_at
}
