// Package contact validates, normalizes and stores contact submissions.
package contact

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// MsgInvalidEmail is the user-facing message for a rejected address.
const MsgInvalidEmail = "Invalid email address"

// maxNameLength caps the stored name before escaping.
const maxNameLength = 200

// ValidationError reports an unacceptable submission.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Store persists contact records.
type Store interface {
	UpsertContact(ctx context.Context, contact *domain.ContactRecord) error
}

// Submission is the body of POST /api/collect-contact.
type Submission struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Service handles contact capture.
type Service struct {
	store Store
}

// NewService creates a contact capture service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Submit validates and normalizes the submission and upserts it keyed by
// the normalized email. Storage failures are returned to the caller.
func (s *Service) Submit(ctx context.Context, sub Submission) (*domain.ContactRecord, error) {
	email, err := NormalizeEmail(sub.Email)
	if err != nil {
		return nil, err
	}

	record := &domain.ContactRecord{
		Email:     email,
		Name:      SanitizeName(sub.Name),
		SessionID: strings.TrimSpace(sub.SessionID),
	}
	if err := s.store.UpsertContact(ctx, record); err != nil {
		return nil, fmt.Errorf("save contact: %w", err)
	}

	slog.Info("contact collected", "email_domain", domainOf(email), "has_name", record.HasName())
	return record, nil
}

// NormalizeEmail validates a single bare address and returns its canonical
// form: lowercase, with Gmail dots and +tags removed.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Message: MsgInvalidEmail}
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", &ValidationError{Message: MsgInvalidEmail}
	}

	at := strings.LastIndex(addr.Address, "@")
	local := strings.ToLower(addr.Address[:at])
	host := strings.ToLower(addr.Address[at+1:])
	if !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return "", &ValidationError{Message: MsgInvalidEmail}
	}

	if host == "gmail.com" || host == "googlemail.com" {
		if plus := strings.IndexByte(local, '+'); plus >= 0 {
			local = local[:plus]
		}
		local = strings.ReplaceAll(local, ".", "")
		host = "gmail.com"
		if local == "" {
			return "", &ValidationError{Message: MsgInvalidEmail}
		}
	}
	return local + "@" + host, nil
}

// SanitizeName trims, truncates and HTML-escapes a display name.
func SanitizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return html.EscapeString(name)
}

func domainOf(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[at+1:]
	}
	return ""
}
