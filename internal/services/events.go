package services

import (
	"context"
	"errors"

	"moneybook/internal/amqp"
)

var ErrForbidden = errors.New("forbidden")

// EventPublisher announces transaction changes to other processes.
type EventPublisher interface {
	PublishTransactionChanged(ctx context.Context, event *amqp.TransactionEvent) error
}

// CacheInvalidator drops cached derived data for a user.
type CacheInvalidator interface {
	Invalidate(userID int64)
}
