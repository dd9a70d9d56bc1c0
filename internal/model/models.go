package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a ResumeClarity account, created lazily on first
// verified login. Guests are tracked by client IP and have no row here.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pass is a purchased access window. A pass is active while expires_at
// is in the future and status is active.
type Pass struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"userId"`
	Tier            string    `json:"tier"`
	Status          string    `json:"status"`
	StripeSessionID string    `json:"-"`
	ExpiresAt       time.Time `json:"expiresAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ActivePass is the wire shape attached to envelopes and /api/me.
type ActivePass struct {
	Tier      string    `json:"tier"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Pass tier constants
const (
	TierDay  = "day"
	TierWeek = "week"
)

func ValidTier(t string) bool {
	return t == TierDay || t == TierWeek
}

// Pass status constants
const (
	PassStatusActive   = "active"
	PassStatusExpired  = "expired"
	PassStatusRefunded = "refunded"
)

// AccessTier governs how much of a report the response carries.
// Set per-response by the server and never escalated client-side, except
// for the canned sample report which is always full access.
type AccessTier string

const (
	AccessPassFull AccessTier = "pass_full"
	AccessFreeFull AccessTier = "free_full"
)

// RunCounter tracks free-tier usage for a subject (user ID or guest IP).
type RunCounter struct {
	Subject   string    `json:"subject"`
	RunCount  int       `json:"runCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}
