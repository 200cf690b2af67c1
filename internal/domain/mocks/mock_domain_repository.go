package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockDomainRepository is a mock of DomainRepository interface
type MockDomainRepository struct {
	ctrl     *gomock.Controller
	recorder *MockDomainRepositoryMockRecorder
}

// MockDomainRepositoryMockRecorder is the mock recorder for MockDomainRepository
type MockDomainRepositoryMockRecorder struct {
	mock *MockDomainRepository
}

// NewMockDomainRepository creates a new mock instance
func NewMockDomainRepository(ctrl *gomock.Controller) *MockDomainRepository {
	mock := &MockDomainRepository{ctrl: ctrl}
	mock.recorder = &MockDomainRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockDomainRepository) EXPECT() *MockDomainRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method
func (m *MockDomainRepository) Create(ctx context.Context, d *domain.SendingDomain) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, d)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockDomainRepositoryMockRecorder) Create(ctx, d interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockDomainRepository)(nil).Create), ctx, d)
}

// GetByID mocks base method
func (m *MockDomainRepository) GetByID(ctx context.Context, id string) (*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockDomainRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockDomainRepository)(nil).GetByID), ctx, id)
}

// List mocks base method
func (m *MockDomainRepository) List(ctx context.Context, filter domain.DomainFilter) ([]*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, filter)
	ret0, _ := ret[0].([]*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List
func (mr *MockDomainRepositoryMockRecorder) List(ctx, filter interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockDomainRepository)(nil).List), ctx, filter)
}

// Update mocks base method
func (m *MockDomainRepository) Update(ctx context.Context, d *domain.SendingDomain) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, d)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update
func (mr *MockDomainRepositoryMockRecorder) Update(ctx, d interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockDomainRepository)(nil).Update), ctx, d)
}

// ListDueForTest mocks base method
func (m *MockDomainRepository) ListDueForTest(ctx context.Context, before time.Time, limit int) ([]*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListDueForTest", ctx, before, limit)
	ret0, _ := ret[0].([]*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListDueForTest indicates an expected call of ListDueForTest
func (mr *MockDomainRepositoryMockRecorder) ListDueForTest(ctx, before, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListDueForTest", reflect.TypeOf((*MockDomainRepository)(nil).ListDueForTest), ctx, before, limit)
}

// TransitionPool mocks base method
func (m *MockDomainRepository) TransitionPool(ctx context.Context, domainID string, target domain.PoolType, event domain.RotationEvent) (*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TransitionPool", ctx, domainID, target, event)
	ret0, _ := ret[0].(*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// TransitionPool indicates an expected call of TransitionPool
func (mr *MockDomainRepositoryMockRecorder) TransitionPool(ctx, domainID, target, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TransitionPool", reflect.TypeOf((*MockDomainRepository)(nil).TransitionPool), ctx, domainID, target, event)
}

// CountByPool mocks base method
func (m *MockDomainRepository) CountByPool(ctx context.Context) (map[domain.PoolType]int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountByPool", ctx)
	ret0, _ := ret[0].(map[domain.PoolType]int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountByPool indicates an expected call of CountByPool
func (mr *MockDomainRepositoryMockRecorder) CountByPool(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountByPool", reflect.TypeOf((*MockDomainRepository)(nil).CountByPool), ctx)
}
