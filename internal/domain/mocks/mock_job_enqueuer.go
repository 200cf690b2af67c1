package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockJobEnqueuer is a mock of JobEnqueuer interface
type MockJobEnqueuer struct {
	ctrl     *gomock.Controller
	recorder *MockJobEnqueuerMockRecorder
}

// MockJobEnqueuerMockRecorder is the mock recorder for MockJobEnqueuer
type MockJobEnqueuerMockRecorder struct {
	mock *MockJobEnqueuer
}

// NewMockJobEnqueuer creates a new mock instance
func NewMockJobEnqueuer(ctrl *gomock.Controller) *MockJobEnqueuer {
	mock := &MockJobEnqueuer{ctrl: ctrl}
	mock.recorder = &MockJobEnqueuerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockJobEnqueuer) EXPECT() *MockJobEnqueuerMockRecorder {
	return m.recorder
}

// Enqueue mocks base method
func (m *MockJobEnqueuer) Enqueue(ctx context.Context, job *domain.Job) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Enqueue", ctx, job)
	ret0, _ := ret[0].(error)
	return ret0
}

// Enqueue indicates an expected call of Enqueue
func (mr *MockJobEnqueuerMockRecorder) Enqueue(ctx, job interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Enqueue", reflect.TypeOf((*MockJobEnqueuer)(nil).Enqueue), ctx, job)
}
