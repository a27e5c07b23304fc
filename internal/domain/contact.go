package domain

import "time"

// ContactRecord is a collected contact. Email is the unique key; a later
// submission for the same email replaces the earlier one.
type ContactRecord struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasName reports whether the contact supplied a name.
func (c *ContactRecord) HasName() bool {
	return c.Name != ""
}
