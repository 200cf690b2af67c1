package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockPlacementTestRepository is a mock of PlacementTestRepository interface
type MockPlacementTestRepository struct {
	ctrl     *gomock.Controller
	recorder *MockPlacementTestRepositoryMockRecorder
}

// MockPlacementTestRepositoryMockRecorder is the mock recorder for MockPlacementTestRepository
type MockPlacementTestRepositoryMockRecorder struct {
	mock *MockPlacementTestRepository
}

// NewMockPlacementTestRepository creates a new mock instance
func NewMockPlacementTestRepository(ctrl *gomock.Controller) *MockPlacementTestRepository {
	mock := &MockPlacementTestRepository{ctrl: ctrl}
	mock.recorder = &MockPlacementTestRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockPlacementTestRepository) EXPECT() *MockPlacementTestRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method
func (m *MockPlacementTestRepository) Create(ctx context.Context, test *domain.PlacementTest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, test)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockPlacementTestRepositoryMockRecorder) Create(ctx, test interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockPlacementTestRepository)(nil).Create), ctx, test)
}

// GetByID mocks base method
func (m *MockPlacementTestRepository) GetByID(ctx context.Context, id string) (*domain.PlacementTest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.PlacementTest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockPlacementTestRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockPlacementTestRepository)(nil).GetByID), ctx, id)
}

// GetActiveByDomain mocks base method
func (m *MockPlacementTestRepository) GetActiveByDomain(ctx context.Context, domainID string) (*domain.PlacementTest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetActiveByDomain", ctx, domainID)
	ret0, _ := ret[0].(*domain.PlacementTest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetActiveByDomain indicates an expected call of GetActiveByDomain
func (mr *MockPlacementTestRepositoryMockRecorder) GetActiveByDomain(ctx, domainID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetActiveByDomain", reflect.TypeOf((*MockPlacementTestRepository)(nil).GetActiveByDomain), ctx, domainID)
}

// Update mocks base method
func (m *MockPlacementTestRepository) Update(ctx context.Context, test *domain.PlacementTest) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, test)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update
func (mr *MockPlacementTestRepositoryMockRecorder) Update(ctx, test interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockPlacementTestRepository)(nil).Update), ctx, test)
}

// ListByDomain mocks base method
func (m *MockPlacementTestRepository) ListByDomain(ctx context.Context, domainID string, limit int) ([]*domain.PlacementTest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByDomain", ctx, domainID, limit)
	ret0, _ := ret[0].([]*domain.PlacementTest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByDomain indicates an expected call of ListByDomain
func (mr *MockPlacementTestRepositoryMockRecorder) ListByDomain(ctx, domainID, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByDomain", reflect.TypeOf((*MockPlacementTestRepository)(nil).ListByDomain), ctx, domainID, limit)
}
