package models

import (
	"time"
)

// Event represents an event document in the MongoDB database.
// AttendeeIDs is mutated exclusively through the store's admission
// operations; every other field is owned by organizer CRUD.
type Event struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Description   string    `bson:"description" json:"description"`
	Capacity      int       `bson:"capacity" json:"capacity"`
	PriceAmount   float64   `bson:"price_amount" json:"price_amount"`
	PriceCurrency string    `bson:"price_currency" json:"price_currency"`
	AttendeeIDs   []string  `bson:"attendee_ids" json:"attendee_ids"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// IsFree reports whether registration requires no payment.
func (e *Event) IsFree() bool {
	return e.PriceAmount == 0
}

// Remaining returns the number of open attendee slots, never negative.
func (e *Event) Remaining() int {
	if n := e.Capacity - len(e.AttendeeIDs); n > 0 {
		return n
	}
	return 0
}
