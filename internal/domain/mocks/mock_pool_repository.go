package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockPoolRepository is a mock of PoolRepository interface
type MockPoolRepository struct {
	ctrl     *gomock.Controller
	recorder *MockPoolRepositoryMockRecorder
}

// MockPoolRepositoryMockRecorder is the mock recorder for MockPoolRepository
type MockPoolRepositoryMockRecorder struct {
	mock *MockPoolRepository
}

// NewMockPoolRepository creates a new mock instance
func NewMockPoolRepository(ctrl *gomock.Controller) *MockPoolRepository {
	mock := &MockPoolRepository{ctrl: ctrl}
	mock.recorder = &MockPoolRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockPoolRepository) EXPECT() *MockPoolRepositoryMockRecorder {
	return m.recorder
}

// Upsert mocks base method
func (m *MockPoolRepository) Upsert(ctx context.Context, pool *domain.Pool) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, pool)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert
func (mr *MockPoolRepositoryMockRecorder) Upsert(ctx, pool interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockPoolRepository)(nil).Upsert), ctx, pool)
}

// GetByType mocks base method
func (m *MockPoolRepository) GetByType(ctx context.Context, poolType domain.PoolType) (*domain.Pool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByType", ctx, poolType)
	ret0, _ := ret[0].(*domain.Pool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByType indicates an expected call of GetByType
func (mr *MockPoolRepositoryMockRecorder) GetByType(ctx, poolType interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByType", reflect.TypeOf((*MockPoolRepository)(nil).GetByType), ctx, poolType)
}

// List mocks base method
func (m *MockPoolRepository) List(ctx context.Context) ([]*domain.Pool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx)
	ret0, _ := ret[0].([]*domain.Pool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List
func (mr *MockPoolRepositoryMockRecorder) List(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockPoolRepository)(nil).List), ctx)
}
