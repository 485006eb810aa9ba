package domain

import (
	"fmt"
	"math"
	"time"
)

// ZoneIndexFromRowCol converts row/col grid coordinates to a zone index (1-9).
// Both 0-based (0-2) and 1-based (1-3) coordinates are supported; anything
// else yields nil.
func ZoneIndexFromRowCol(row, col *int) *int {
	if row == nil || col == nil {
		return nil
	}
	if *row >= 0 && *row <= 2 && *col >= 0 && *col <= 2 {
		zone := *row*3 + *col + 1
		return &zone
	}
	if *row >= 1 && *row <= 3 && *col >= 1 && *col <= 3 {
		zone := (*row-1)*3 + *col
		return &zone
	}
	return nil
}

// NormalizePitch reconciles a raw pitch object into the canonical shape.
// Missing fields degrade to nil; the index generates a 1-based fallback id.
func NormalizePitch(pitch map[string]any, index int) Pitch {
	pitchID := stringAlias(pitch, "pitch_id", "pitchId", "id")
	if pitchID == "" {
		pitchID = fmt.Sprintf("pitch-%d", index+1)
	}

	zoneRow := intAlias(pitch, "zone_row", "zoneRow")
	zoneCol := intAlias(pitch, "zone_col", "zoneCol")
	zone := intAlias(pitch, "zone")
	if zone == nil {
		zone = ZoneIndexFromRowCol(zoneRow, zoneCol)
	}

	return Pitch{
		PitchID:  pitchID,
		Speed:    numberAlias(pitch, "speed_mph", "speed"),
		Run:      numberAlias(pitch, "run_in", "run"),
		Rise:     numberAlias(pitch, "rise_in", "rise"),
		Zone:     zone,
		ZoneRow:  zoneRow,
		ZoneCol:  zoneCol,
		IsStrike: boolAlias(pitch, "is_strike", "isStrike"),

		RotationRPM:    numberAlias(pitch, "rotation_rpm", "rpm"),
		SpinAxis:       numberAlias(pitch, "spin_axis"),
		SpinEfficiency: numberAlias(pitch, "spin_efficiency"),
		Confidence:     numberAlias(pitch, "confidence"),
		PlateX:         numberAlias(pitch, "plate_x"),
		PlateZ:         numberAlias(pitch, "plate_z"),
		ReleaseHeight:  numberAlias(pitch, "release_height"),
		ReleaseSide:    numberAlias(pitch, "release_side"),
		Extension:      numberAlias(pitch, "extension"),

		Raw: pitch,
	}
}

// ExtractSession reconciles a raw payload into the canonical session record.
// It never fails: absent fields become nil or defaults, and an absent session
// id is generated from the current epoch milliseconds.
func ExtractSession(payload map[string]any) *Session {
	sessionID := stringAlias(payload, "session_id", "sessionId", "id")
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixMilli())
	}

	var pitches []Pitch
	if rawPitches, ok := payload["pitches"].([]any); ok {
		pitches = make([]Pitch, 0, len(rawPitches))
		for i, rp := range rawPitches {
			obj, _ := rp.(map[string]any)
			if obj == nil {
				obj = map[string]any{}
			}
			pitches = append(pitches, NormalizePitch(obj, i))
		}
	}

	pitchCount := len(pitches)
	if explicit := intAlias(payload, "pitch_count"); explicit != nil {
		pitchCount = *explicit
	}

	var heatmap any
	if v, ok := payload["heatmap"]; ok && v != nil {
		heatmap = v
	}

	return &Session{
		SessionID:   sessionID,
		SessionName: stringPtrAlias(payload, "session_name", "sessionName"),
		StartedAt:   stringPtrAlias(payload, "started_at", "startedAt"),
		PitchCount:  pitchCount,
		Strikes:     intAlias(payload, "strikes"),
		Balls:       intAlias(payload, "balls"),
		Heatmap:     heatmap,
		Pitches:     pitches,
	}
}

// stringAlias returns the first non-empty string value among the keys.
func stringAlias(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// stringPtrAlias is stringAlias with a nil result for absence.
func stringPtrAlias(m map[string]any, keys ...string) *string {
	if s := stringAlias(m, keys...); s != "" {
		return &s
	}
	return nil
}

// numberAlias returns the first present numeric value among the keys. A
// present zero wins over a later alias.
func numberAlias(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := asFloat(v); ok {
				return &f
			}
		}
	}
	return nil
}

// intAlias returns the first present integral numeric value among the keys.
func intAlias(m map[string]any, keys ...string) *int {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := asFloat(v); ok && f == math.Trunc(f) {
				n := int(f)
				return &n
			}
		}
	}
	return nil
}

// boolAlias returns the first present boolean value among the keys.
func boolAlias(m map[string]any, keys ...string) *bool {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if b, ok := v.(bool); ok {
				return &b
			}
		}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
