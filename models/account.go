package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is a registered login. Its ObjectID hex is the owner identifier
// all versioned entities and jobs are scoped under.
type Account struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`    // bcrypt hash, never returned
	Status    string             `bson:"status" json:"status"` // pending, verified, active
	OTP       string             `bson:"otp,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
