package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertEmailLog records that an email was sent.
func (db *DB) InsertEmailLog(ctx context.Context, entry *models.EmailLog) error {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}
	_, err := db.EmailLogs().InsertOne(ctx, entry, options.InsertOne())
	return err
}
