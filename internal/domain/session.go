// Package domain defines the canonical session and pitch records produced by
// field normalization, independent of the wire format they arrived in.
package domain

// Session is the canonical session record. Optional fields are nil when the
// source payload did not supply them.
type Session struct {
	SessionID   string
	SessionName *string
	StartedAt   *string
	PitchCount  int
	Strikes     *int
	Balls       *int
	Heatmap     any
	Pitches     []Pitch
}

// Pitch is the canonical pitch record. Raw retains the original per-pitch
// payload for audit.
type Pitch struct {
	PitchID  string
	Speed    *float64
	Run      *float64
	Rise     *float64
	Zone     *int
	ZoneRow  *int
	ZoneCol  *int
	IsStrike *bool

	// Enrichment fields from detailed tracker exports
	RotationRPM    *float64
	SpinAxis       *float64
	SpinEfficiency *float64
	Confidence     *float64
	PlateX         *float64
	PlateZ         *float64
	ReleaseHeight  *float64
	ReleaseSide    *float64
	Extension      *float64

	Raw map[string]any
}
