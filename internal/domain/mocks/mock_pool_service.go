package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockPoolService is a mock of PoolService interface
type MockPoolService struct {
	ctrl     *gomock.Controller
	recorder *MockPoolServiceMockRecorder
}

// MockPoolServiceMockRecorder is the mock recorder for MockPoolService
type MockPoolServiceMockRecorder struct {
	mock *MockPoolService
}

// NewMockPoolService creates a new mock instance
func NewMockPoolService(ctrl *gomock.Controller) *MockPoolService {
	mock := &MockPoolService{ctrl: ctrl}
	mock.recorder = &MockPoolServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockPoolService) EXPECT() *MockPoolServiceMockRecorder {
	return m.recorder
}

// InitializePools mocks base method
func (m *MockPoolService) InitializePools(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "InitializePools", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// InitializePools indicates an expected call of InitializePools
func (mr *MockPoolServiceMockRecorder) InitializePools(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InitializePools", reflect.TypeOf((*MockPoolService)(nil).InitializePools), ctx)
}

// TransitionDomain mocks base method
func (m *MockPoolService) TransitionDomain(ctx context.Context, domainID string, target domain.PoolType, reason string, opts ...domain.TransitionOption) error {
	m.ctrl.T.Helper()
	varargs := []interface{}{ctx, domainID, target, reason}
	for _, a := range opts {
		varargs = append(varargs, a)
	}
	ret := m.ctrl.Call(m, "TransitionDomain", varargs...)
	ret0, _ := ret[0].(error)
	return ret0
}

// TransitionDomain indicates an expected call of TransitionDomain
func (mr *MockPoolServiceMockRecorder) TransitionDomain(ctx, domainID, target, reason interface{}, opts ...interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	varargs := append([]interface{}{ctx, domainID, target, reason}, opts...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TransitionDomain", reflect.TypeOf((*MockPoolService)(nil).TransitionDomain), varargs...)
}

// ApplyPoolSettings mocks base method
func (m *MockPoolService) ApplyPoolSettings(ctx context.Context, poolType domain.PoolType, patch domain.PoolSettingsPatch) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ApplyPoolSettings", ctx, poolType, patch)
	ret0, _ := ret[0].(error)
	return ret0
}

// ApplyPoolSettings indicates an expected call of ApplyPoolSettings
func (mr *MockPoolServiceMockRecorder) ApplyPoolSettings(ctx, poolType, patch interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ApplyPoolSettings", reflect.TypeOf((*MockPoolService)(nil).ApplyPoolSettings), ctx, poolType, patch)
}

// CheckGraduation mocks base method
func (m *MockPoolService) CheckGraduation(ctx context.Context, domainID string) (*domain.TransitionDecision, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckGraduation", ctx, domainID)
	ret0, _ := ret[0].(*domain.TransitionDecision)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CheckGraduation indicates an expected call of CheckGraduation
func (mr *MockPoolServiceMockRecorder) CheckGraduation(ctx, domainID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckGraduation", reflect.TypeOf((*MockPoolService)(nil).CheckGraduation), ctx, domainID)
}

// GetPoolMetrics mocks base method
func (m *MockPoolService) GetPoolMetrics(ctx context.Context, poolType domain.PoolType) (*domain.PoolMetrics, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetPoolMetrics", ctx, poolType)
	ret0, _ := ret[0].(*domain.PoolMetrics)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetPoolMetrics indicates an expected call of GetPoolMetrics
func (mr *MockPoolServiceMockRecorder) GetPoolMetrics(ctx, poolType interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetPoolMetrics", reflect.TypeOf((*MockPoolService)(nil).GetPoolMetrics), ctx, poolType)
}
