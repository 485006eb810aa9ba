// Package mocks provides mock implementations of repository interfaces for testing.
package mocks

import (
	"context"
	"sync"

	"pitchstat-backend/internal/repository"
	appErrors "pitchstat-backend/pkg/errors"
)

// MockRepository provides an in-memory mock implementation of the Repository
// interface. Useful for unit testing services without a real table store.
type MockRepository struct {
	mu sync.RWMutex

	// sessions: userID -> sessionKey -> record
	sessions map[string]map[string]repository.SessionRecord
	// pitches: sessionKey -> pitchKey -> record
	pitches map[string]map[string]repository.PitchRecord

	// batchCalls records the size of each PutPitchBatch call in order.
	batchCalls []int

	// failOnBatch, when > 0, fails the nth PutPitchBatch call (1-based).
	failOnBatch int

	// For testing error scenarios
	shouldFailOn map[string]error
}

// NewMockRepository creates a new mock repository instance.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		sessions:     make(map[string]map[string]repository.SessionRecord),
		pitches:      make(map[string]map[string]repository.PitchRecord),
		shouldFailOn: make(map[string]error),
	}
}

// SetError configures the mock to return an error for a specific method.
func (m *MockRepository) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (m *MockRepository) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn = make(map[string]error)
	m.failOnBatch = 0
}

// FailOnBatch makes the nth PutPitchBatch call (1-based) fail.
func (m *MockRepository) FailOnBatch(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOnBatch = n
}

// BatchCalls returns the sizes of the batches submitted so far, in order.
func (m *MockRepository) BatchCalls() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, len(m.batchCalls))
	copy(out, m.batchCalls)
	return out
}

func (m *MockRepository) checkError(method string) error {
	if err, exists := m.shouldFailOn[method]; exists {
		return err
	}
	return nil
}

// UpsertSession stores or replaces a session record.
func (m *MockRepository) UpsertSession(ctx context.Context, record repository.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("UpsertSession"); err != nil {
		return err
	}

	if m.sessions[record.UserID] == nil {
		m.sessions[record.UserID] = make(map[string]repository.SessionRecord)
	}
	m.sessions[record.UserID][record.SessionKey] = record
	return nil
}

// GetSession fetches a stored session record.
func (m *MockRepository) GetSession(ctx context.Context, userID, sessionKey string) (*repository.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError("GetSession"); err != nil {
		return nil, err
	}

	record, ok := m.sessions[userID][sessionKey]
	if !ok {
		return nil, appErrors.NewNotFound("session not found")
	}
	return &record, nil
}

// ListSessions returns all session records for a user.
func (m *MockRepository) ListSessions(ctx context.Context, userID string) ([]repository.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError("ListSessions"); err != nil {
		return nil, err
	}

	var records []repository.SessionRecord
	for _, record := range m.sessions[userID] {
		records = append(records, record)
	}
	return records, nil
}

// DeleteSession removes a stored session record.
func (m *MockRepository) DeleteSession(ctx context.Context, userID, sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("DeleteSession"); err != nil {
		return err
	}

	delete(m.sessions[userID], sessionKey)
	return nil
}

// PutPitchBatch stores a batch of pitch records atomically.
func (m *MockRepository) PutPitchBatch(ctx context.Context, records []repository.PitchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.batchCalls) + 1
	m.batchCalls = append(m.batchCalls, len(records))

	if err := m.checkError("PutPitchBatch"); err != nil {
		return err
	}
	if m.failOnBatch > 0 && call == m.failOnBatch {
		return appErrors.NewInternal("simulated batch failure", nil)
	}

	for _, record := range records {
		if m.pitches[record.SessionKey] == nil {
			m.pitches[record.SessionKey] = make(map[string]repository.PitchRecord)
		}
		m.pitches[record.SessionKey][record.PitchKey] = record
	}
	return nil
}

// ListPitches returns all pitch records in a session partition.
func (m *MockRepository) ListPitches(ctx context.Context, sessionKey string) ([]repository.PitchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError("ListPitches"); err != nil {
		return nil, err
	}

	var records []repository.PitchRecord
	for _, record := range m.pitches[sessionKey] {
		records = append(records, record)
	}
	return records, nil
}
