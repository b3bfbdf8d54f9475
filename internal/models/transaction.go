package models

import (
	"time"
)

// TxStatus is the lifecycle state of a payment transaction. A transaction
// starts as pending and moves exactly once to one of the terminal states.
type TxStatus string

const (
	StatusPending   TxStatus = "pending"
	StatusSuccess   TxStatus = "success"
	StatusFailed    TxStatus = "failed"
	StatusCancelled TxStatus = "cancelled"
)

// Terminal reports whether the status may never change again.
func (s TxStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// PaymentTransaction is one payment attempt in the ledger, keyed by its
// unique transaction reference. Rows are never deleted.
type PaymentTransaction struct {
	TxRef               string                 `bson:"_id" json:"tx_ref"`
	EventID             string                 `bson:"event_id" json:"event_id"`
	UserID              string                 `bson:"user_id" json:"user_id"`
	Amount              float64                `bson:"amount" json:"amount"`
	Currency            string                 `bson:"currency" json:"currency"`
	Status              TxStatus               `bson:"status" json:"status"`
	GatewayReference    string                 `bson:"gateway_reference,omitempty" json:"gateway_reference,omitempty"`
	CheckoutURL         string                 `bson:"checkout_url,omitempty" json:"checkout_url,omitempty"`
	CreatedAt           time.Time              `bson:"created_at" json:"created_at"`
	VerifiedAt          *time.Time             `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	VerificationPayload map[string]interface{} `bson:"verification_payload,omitempty" json:"verification_payload,omitempty"`
}

// Reconciliation records a payment that succeeded without the user being
// admitted, for operator follow-up. Never resolved automatically.
type Reconciliation struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	TxRef     string    `bson:"tx_ref" json:"tx_ref"`
	EventID   string    `bson:"event_id" json:"event_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Reason    string    `bson:"reason" json:"reason"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
