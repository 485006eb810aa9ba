// Package session provides the ingestion pipeline for pitch session uploads:
// archive normalization, contract validation, field normalization and
// transactionally-safe persistence, plus the read-side listing and detail
// operations.
package session

import (
	"context"
	"sort"
	"time"

	"pitchstat-backend/internal/archive"
	"pitchstat-backend/internal/contract"
	"pitchstat-backend/internal/domain"
	"pitchstat-backend/internal/observability"
	"pitchstat-backend/internal/repository"
	appErrors "pitchstat-backend/pkg/errors"

	"go.uber.org/zap"
)

// IngestResult confirms a persisted upload.
type IngestResult struct {
	SessionID  string
	PitchCount int
}

// Service defines the session-related business operations.
type Service interface {
	// IngestUpload runs the full pipeline on a raw upload body and persists
	// the result for the given identity.
	IngestUpload(ctx context.Context, userID string, body []byte, contentType string) (*IngestResult, error)

	// ListSessions returns the identity's session records, newest created
	// first.
	ListSessions(ctx context.Context, userID string) ([]repository.SessionRecord, error)

	// GetSessionDetail returns one session record and all of its pitches.
	GetSessionDetail(ctx context.Context, userID, sessionID string) (*repository.SessionRecord, []repository.PitchRecord, error)
}

// service implements the Service interface.
type service struct {
	repo      repository.Repository
	processor *archive.Processor
	validator *contract.Validator
	collector *observability.Collector
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a session service.
func NewService(
	repo repository.Repository,
	processor *archive.Processor,
	validator *contract.Validator,
	collector *observability.Collector,
	logger *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		processor: processor,
		validator: validator,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// IngestUpload normalizes, validates and persists one upload.
func (s *service) IngestUpload(ctx context.Context, userID string, body []byte, contentType string) (*IngestResult, error) {
	if !repository.ValidateFilterValue(userID) {
		return nil, appErrors.NewUnsafeIdentifier("userId")
	}

	payload, err := s.processor.ProcessUpload(body, contentType)
	if err != nil {
		s.collector.UploadFailures.WithLabelValues("parse").Inc()
		return nil, err
	}

	// The contract applies to the payload as supplied, before any defaults
	// or derived fields exist.
	if result := s.validator.Validate(payload); !result.OK {
		s.collector.UploadFailures.WithLabelValues("validation").Inc()
		return nil, appErrors.NewValidationWithDetails(result.Err, result.Details)
	}

	extracted := domain.ExtractSession(payload)

	if err := s.persist(ctx, userID, extracted, payload); err != nil {
		if appErrors.IsTransactionFailed(err) {
			s.collector.UploadFailures.WithLabelValues("transaction").Inc()
		}
		return nil, err
	}

	s.collector.SessionsIngested.Inc()
	s.collector.PitchesStored.Add(float64(len(extracted.Pitches)))

	return &IngestResult{
		SessionID:  extracted.SessionID,
		PitchCount: extracted.PitchCount,
	}, nil
}

// ListSessions returns the identity's sessions sorted descending by creation
// timestamp.
func (s *service) ListSessions(ctx context.Context, userID string) ([]repository.SessionRecord, error) {
	if !repository.ValidateFilterValue(userID) {
		return nil, appErrors.NewUnsafeIdentifier("userId")
	}

	records, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to list sessions")
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	return records, nil
}

// GetSessionDetail returns one session and every pitch in its partition.
func (s *service) GetSessionDetail(ctx context.Context, userID, sessionID string) (*repository.SessionRecord, []repository.PitchRecord, error) {
	if !repository.ValidateFilterValue(userID) {
		return nil, nil, appErrors.NewUnsafeIdentifier("userId")
	}

	sessionKey := repository.ToTableKey(sessionID)
	if !repository.ValidateFilterValue(sessionKey) {
		return nil, nil, appErrors.NewUnsafeIdentifier("sessionKey")
	}

	record, err := s.repo.GetSession(ctx, userID, sessionKey)
	if err != nil {
		return nil, nil, err
	}

	pitches, err := s.repo.ListPitches(ctx, sessionKey)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, "failed to list pitches")
	}
	return record, pitches, nil
}
