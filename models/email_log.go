package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EmailKindPasswordReset = "password_reset"
	EmailKindContact       = "contact"
)

// EmailLog records an outbound email sent by the API.
type EmailLog struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind    string             `bson:"kind" json:"kind"`
	ToEmail string             `bson:"toEmail" json:"toEmail"`
	Subject string             `bson:"subject" json:"subject"`
	UserID  primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	SentAt  time.Time          `bson:"sentAt" json:"sentAt"`
}
