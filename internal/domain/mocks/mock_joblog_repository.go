package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockJobLogRepository is a mock of JobLogRepository interface
type MockJobLogRepository struct {
	ctrl     *gomock.Controller
	recorder *MockJobLogRepositoryMockRecorder
}

// MockJobLogRepositoryMockRecorder is the mock recorder for MockJobLogRepository
type MockJobLogRepositoryMockRecorder struct {
	mock *MockJobLogRepository
}

// NewMockJobLogRepository creates a new mock instance
func NewMockJobLogRepository(ctrl *gomock.Controller) *MockJobLogRepository {
	mock := &MockJobLogRepository{ctrl: ctrl}
	mock.recorder = &MockJobLogRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockJobLogRepository) EXPECT() *MockJobLogRepositoryMockRecorder {
	return m.recorder
}

// Append mocks base method
func (m *MockJobLogRepository) Append(ctx context.Context, entry *domain.JobLogEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Append", ctx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Append indicates an expected call of Append
func (mr *MockJobLogRepositoryMockRecorder) Append(ctx, entry interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Append", reflect.TypeOf((*MockJobLogRepository)(nil).Append), ctx, entry)
}

// ListByJob mocks base method
func (m *MockJobLogRepository) ListByJob(ctx context.Context, jobID string) ([]*domain.JobLogEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByJob", ctx, jobID)
	ret0, _ := ret[0].([]*domain.JobLogEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByJob indicates an expected call of ListByJob
func (mr *MockJobLogRepositoryMockRecorder) ListByJob(ctx, jobID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByJob", reflect.TypeOf((*MockJobLogRepository)(nil).ListByJob), ctx, jobID)
}

// PurgeOlderThan mocks base method
func (m *MockJobLogRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PurgeOlderThan", ctx, cutoff)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// PurgeOlderThan indicates an expected call of PurgeOlderThan
func (mr *MockJobLogRepositoryMockRecorder) PurgeOlderThan(ctx, cutoff interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PurgeOlderThan", reflect.TypeOf((*MockJobLogRepository)(nil).PurgeOlderThan), ctx, cutoff)
}
