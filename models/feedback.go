package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback represents user feedback
type Feedback struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     string             `bson:"owner_id" json:"ownerId"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Message     string             `bson:"message" json:"message"`
	ContactBack bool               `bson:"contact_back" json:"contact_back"`
	FileKeys    []string           `bson:"file_keys,omitempty" json:"file_keys,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
