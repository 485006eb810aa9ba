package api

// UploadResponse confirms an accepted session upload.
type UploadResponse struct {
	SessionID  string `json:"sessionId"`
	PitchCount int    `json:"pitchCount"`
}

// SessionSummaryResponse is one row of the session listing. It carries no
// pitch detail.
type SessionSummaryResponse struct {
	SessionID   string  `json:"sessionId"`
	SessionKey  string  `json:"sessionKey"`
	CreatedAt   string  `json:"createdAt"`
	PitchCount  int     `json:"pitchCount"`
	SessionName *string `json:"sessionName"`
	StartedAt   *string `json:"startedAt"`
}

// SessionListResponse wraps the listing endpoint payload.
type SessionListResponse struct {
	Sessions []SessionSummaryResponse `json:"sessions"`
}

// SessionDetailResponse is the full session view including pitches.
type SessionDetailResponse struct {
	Session SessionBody     `json:"session"`
	Pitches []PitchResponse `json:"pitches"`
}

// SessionBody is the session portion of the detail response.
type SessionBody struct {
	SessionID   string  `json:"sessionId"`
	SessionKey  string  `json:"sessionKey"`
	CreatedAt   string  `json:"createdAt"`
	PitchCount  int     `json:"pitchCount"`
	SessionName *string `json:"sessionName"`
	StartedAt   *string `json:"startedAt"`
	Strikes     *int    `json:"strikes"`
	Balls       *int    `json:"balls"`
	Heatmap     any     `json:"heatmap"`
}

// PitchResponse is a single pitch in the detail response.
type PitchResponse struct {
	PitchID        string   `json:"pitchId"`
	Speed          *float64 `json:"speed"`
	Run            *float64 `json:"run"`
	Rise           *float64 `json:"rise"`
	Zone           *int     `json:"zone"`
	ZoneRow        *int     `json:"zoneRow"`
	ZoneCol        *int     `json:"zoneCol"`
	IsStrike       *bool    `json:"isStrike"`
	RotationRPM    *float64 `json:"rotationRpm"`
	SpinAxis       *float64 `json:"spinAxis"`
	SpinEfficiency *float64 `json:"spinEfficiency"`
	Confidence     *float64 `json:"confidence"`
	PlateX         *float64 `json:"plateX"`
	PlateZ         *float64 `json:"plateZ"`
	ReleaseHeight  *float64 `json:"releaseHeight"`
	ReleaseSide    *float64 `json:"releaseSide"`
	Extension      *float64 `json:"extension"`
}
