package session

import (
	"context"
	"encoding/json"
	"time"

	"pitchstat-backend/internal/domain"
	"pitchstat-backend/internal/repository"
	appErrors "pitchstat-backend/pkg/errors"

	"go.uber.org/zap"
)

// persist writes the session record, then all pitch records as sequential
// atomic batches under the session's partition. The store offers no
// cross-table atomicity, so integrity is a two-step saga: write the parent,
// write the children, and compensate by deleting the parent when a child
// batch fails. The pitch partitions that were written before the failure are
// unreachable without the session record, so the session is never observed
// half-populated.
func (s *service) persist(ctx context.Context, userID string, extracted *domain.Session, payload map[string]any) error {
	sessionKey := repository.ToTableKey(extracted.SessionID)
	createdAt := s.now().UTC().Format(time.RFC3339)

	sessionRecord, err := buildSessionRecord(userID, sessionKey, createdAt, extracted, payload)
	if err != nil {
		return err
	}

	pitchRecords, err := buildPitchRecords(sessionKey, extracted)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertSession(ctx, *sessionRecord); err != nil {
		return appErrors.Wrap(err, "failed to save session record")
	}

	batches := chunkRecords(pitchRecords, repository.MaxBatchOperations)
	for i, batch := range batches {
		// Batches are submitted strictly in order; a concurrent submission
		// would make the compensating delete unsound.
		if err := s.repo.PutPitchBatch(ctx, batch); err != nil {
			s.collector.BatchFailures.Inc()
			s.logger.Error("pitch batch transaction failed",
				zap.String("sessionId", extracted.SessionID),
				zap.String("sessionKey", sessionKey),
				zap.String("userId", userID),
				zap.Int("batchesCompleted", i),
				zap.Int("totalBatches", len(batches)),
				zap.Error(err))

			s.compensate(ctx, userID, sessionKey)
			return appErrors.NewTransactionFailed(err)
		}
	}
	return nil
}

// compensate removes the session record written before a batch failure. Its
// own failure is logged at higher severity but never replaces the original
// error surfaced to the caller.
func (s *service) compensate(ctx context.Context, userID, sessionKey string) {
	if err := s.repo.DeleteSession(ctx, userID, sessionKey); err != nil {
		s.collector.CompensationFailures.Inc()
		s.logger.Error("failed to clean up session record after batch failure",
			zap.String("sessionKey", sessionKey),
			zap.String("userId", userID),
			zap.Error(err))
		return
	}
	s.logger.Info("cleaned up session record after batch failure",
		zap.String("sessionKey", sessionKey))
}

func buildSessionRecord(userID, sessionKey, createdAt string, extracted *domain.Session, payload map[string]any) (*repository.SessionRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.NewInternal("failed to serialize session payload", err)
	}

	var heatmap *string
	if extracted.Heatmap != nil {
		data, err := json.Marshal(extracted.Heatmap)
		if err != nil {
			return nil, appErrors.NewInternal("failed to serialize heatmap", err)
		}
		text := string(data)
		heatmap = &text
	}

	return &repository.SessionRecord{
		UserID:      userID,
		SessionKey:  sessionKey,
		SessionID:   extracted.SessionID,
		SessionName: extracted.SessionName,
		StartedAt:   extracted.StartedAt,
		CreatedAt:   createdAt,
		PitchCount:  extracted.PitchCount,
		Strikes:     extracted.Strikes,
		Balls:       extracted.Balls,
		Heatmap:     heatmap,
		Raw:         string(raw),
	}, nil
}

func buildPitchRecords(sessionKey string, extracted *domain.Session) ([]repository.PitchRecord, error) {
	records := make([]repository.PitchRecord, 0, len(extracted.Pitches))
	for _, pitch := range extracted.Pitches {
		raw, err := json.Marshal(pitch.Raw)
		if err != nil {
			return nil, appErrors.NewInternal("failed to serialize pitch payload", err)
		}

		records = append(records, repository.PitchRecord{
			SessionKey:     sessionKey,
			PitchKey:       repository.ToTableKey(pitch.PitchID),
			SessionID:      extracted.SessionID,
			PitchID:        pitch.PitchID,
			Speed:          pitch.Speed,
			Run:            pitch.Run,
			Rise:           pitch.Rise,
			Zone:           pitch.Zone,
			ZoneRow:        pitch.ZoneRow,
			ZoneCol:        pitch.ZoneCol,
			IsStrike:       pitch.IsStrike,
			RotationRPM:    pitch.RotationRPM,
			SpinAxis:       pitch.SpinAxis,
			SpinEfficiency: pitch.SpinEfficiency,
			Confidence:     pitch.Confidence,
			PlateX:         pitch.PlateX,
			PlateZ:         pitch.PlateZ,
			ReleaseHeight:  pitch.ReleaseHeight,
			ReleaseSide:    pitch.ReleaseSide,
			Extension:      pitch.Extension,
			Raw:            string(raw),
		})
	}
	return records, nil
}

// chunkRecords splits records into groups of at most size.
func chunkRecords(records []repository.PitchRecord, size int) [][]repository.PitchRecord {
	if len(records) == 0 {
		return nil
	}

	var batches [][]repository.PitchRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}
