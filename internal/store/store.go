// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// DefaultHistoryLimit bounds ConversationHistory when no limit is given.
const DefaultHistoryLimit = 50

// Repository defines the interface for persisting conversations and contacts.
type Repository interface {
	// SaveConversationTurn appends a conversation turn. Turns are never updated.
	SaveConversationTurn(ctx context.Context, turn *domain.ConversationTurn) error

	// ConversationHistory returns up to limit turns for a session, newest first.
	ConversationHistory(ctx context.Context, sessionID string, limit int) ([]*domain.ConversationTurn, error)

	// DeleteConversationsBefore removes turns recorded before the cutoff.
	DeleteConversationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// UpsertContact creates or replaces the contact keyed by its email.
	UpsertContact(ctx context.Context, contact *domain.ContactRecord) error

	// GetContact retrieves a contact by normalized email. Returns nil if absent.
	GetContact(ctx context.Context, email string) (*domain.ContactRecord, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
