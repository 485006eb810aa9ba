// Package repository defines the storage records and interface for the
// partitioned session/pitch tables, plus the key-safety rules shared by every
// implementation.
package repository

import (
	"context"
)

// MaxBatchOperations is the store's per-transaction operation ceiling. This is
// a protocol constant, not configuration.
const MaxBatchOperations = 100

// SessionRecord is a session as stored. UserID is the partition key and
// SessionKey the sanitized row key; exactly one record exists per pair, and a
// re-upload replaces it.
type SessionRecord struct {
	UserID      string
	SessionKey  string
	SessionID   string
	SessionName *string
	StartedAt   *string
	CreatedAt   string
	PitchCount  int
	Strikes     *int
	Balls       *int
	Heatmap     *string
	Raw         string
}

// PitchRecord is a pitch as stored. SessionKey is the partition key, which by
// invariant equals the owning session record's row key, making a per-session
// listing an exact partition query.
type PitchRecord struct {
	SessionKey string
	PitchKey   string
	SessionID  string
	PitchID    string

	Speed    *float64
	Run      *float64
	Rise     *float64
	Zone     *int
	ZoneRow  *int
	ZoneCol  *int
	IsStrike *bool

	RotationRPM    *float64
	SpinAxis       *float64
	SpinEfficiency *float64
	Confidence     *float64
	PlateX         *float64
	PlateZ         *float64
	ReleaseHeight  *float64
	ReleaseSide    *float64
	Extension      *float64

	Raw string
}

// Repository is the storage interface for sessions and pitches.
type Repository interface {
	// UpsertSession writes or replaces the session record.
	UpsertSession(ctx context.Context, record SessionRecord) error

	// GetSession fetches one session record, returning a not found error when
	// it does not exist for that identity.
	GetSession(ctx context.Context, userID, sessionKey string) (*SessionRecord, error)

	// ListSessions returns every session record in the identity's partition.
	ListSessions(ctx context.Context, userID string) ([]SessionRecord, error)

	// DeleteSession removes the session record. Deleting an absent record is
	// not an error.
	DeleteSession(ctx context.Context, userID, sessionKey string) error

	// PutPitchBatch writes up to MaxBatchOperations pitch records as one
	// atomic transaction.
	PutPitchBatch(ctx context.Context, records []PitchRecord) error

	// ListPitches returns every pitch record in the session's partition.
	ListPitches(ctx context.Context, sessionKey string) ([]PitchRecord, error)
}
