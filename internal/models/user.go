package models

import (
	"time"
)

// User model
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	FullName  string    `bson:"fullname" json:"fullname"`
	Email     string    `bson:"email" json:"email"`
	HPassword string    `bson:"password" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
