package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/internal/records"
	"github.com/yobot/leadflow/pkg/apollo"
	"github.com/yobot/leadflow/pkg/hubspot"
)

// MockRecordStore implements RecordStore for testing.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) FindDuplicate(ctx context.Context, lead model.Lead) records.Dedup {
	args := m.Called(ctx, lead)
	return args.Get(0).(records.Dedup)
}

func (m *MockRecordStore) Insert(ctx context.Context, lead model.Lead, enr model.Enrichment) (string, error) {
	args := m.Called(ctx, lead, enr)
	return args.String(0), args.Error(1)
}

func (m *MockRecordStore) MarkDuplicate(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

func (m *MockRecordStore) UpdateExisting(ctx context.Context, recordID string, enr model.Enrichment) error {
	args := m.Called(ctx, recordID, enr)
	return args.Error(0)
}

func (m *MockRecordStore) SetSynced(ctx context.Context, recordID string, synced bool) error {
	args := m.Called(ctx, recordID, synced)
	return args.Error(0)
}

// MockRunStore implements RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) CreateRun(ctx context.Context, lead model.Lead) (*model.Run, error) {
	args := m.Called(ctx, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *MockRunStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	args := m.Called(ctx, runID, status)
	return args.Error(0)
}

func (m *MockRunStore) UpdateRunResult(ctx context.Context, runID string, result *model.IntakeResult) error {
	args := m.Called(ctx, runID, result)
	return args.Error(0)
}

func (m *MockRunStore) ParkSyncRetry(ctx context.Context, entry model.SyncRetry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRunStore) ListSyncRetries(ctx context.Context, limit int) ([]model.SyncRetry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SyncRetry), args.Error(1)
}

func (m *MockRunStore) ResolveSyncRetry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRunStore) BumpSyncRetry(ctx context.Context, id string, lastError string) error {
	args := m.Called(ctx, id, lastError)
	return args.Error(0)
}

// MockApollo implements apollo.Client for testing.
type MockApollo struct {
	mock.Mock
}

func (m *MockApollo) MatchPerson(ctx context.Context, req apollo.MatchRequest) (*apollo.Person, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.Person), args.Error(1)
}

// MockCRM implements hubspot.Client for testing.
type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) SubmitLead(ctx context.Context, lead hubspot.LeadPayload) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// recordingNotifier captures every event for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) last() model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return model.Event{}
	}
	return r.events[len(r.events)-1]
}

func TestMocksSatisfyInterfaces(t *testing.T) {
	t.Parallel()
	var _ RecordStore = (*MockRecordStore)(nil)
	var _ RunStore = (*MockRunStore)(nil)
	var _ apollo.Client = (*MockApollo)(nil)
	var _ hubspot.Client = (*MockCRM)(nil)
	var _ Notifier = (*recordingNotifier)(nil)
}
