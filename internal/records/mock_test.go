package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/yobot/leadflow/pkg/airtable"
)

// MockClient implements airtable.Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateRecord(ctx context.Context, table string, fields map[string]any) (*airtable.Record, error) {
	args := m.Called(ctx, table, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*airtable.Record), args.Error(1)
}

func (m *MockClient) UpdateRecord(ctx context.Context, table, recordID string, fields map[string]any) (*airtable.Record, error) {
	args := m.Called(ctx, table, recordID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*airtable.Record), args.Error(1)
}

func (m *MockClient) ListRecords(ctx context.Context, table string, opts ...airtable.ListOption) ([]airtable.Record, error) {
	args := m.Called(ctx, table, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]airtable.Record), args.Error(1)
}

func TestMockClientSatisfiesInterface(t *testing.T) {
	t.Parallel()
	var _ airtable.Client = (*MockClient)(nil)
}
