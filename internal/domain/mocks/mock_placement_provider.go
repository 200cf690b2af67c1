package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockPlacementProvider is a mock of PlacementProvider interface
type MockPlacementProvider struct {
	ctrl     *gomock.Controller
	recorder *MockPlacementProviderMockRecorder
}

// MockPlacementProviderMockRecorder is the mock recorder for MockPlacementProvider
type MockPlacementProviderMockRecorder struct {
	mock *MockPlacementProvider
}

// NewMockPlacementProvider creates a new mock instance
func NewMockPlacementProvider(ctrl *gomock.Controller) *MockPlacementProvider {
	mock := &MockPlacementProvider{ctrl: ctrl}
	mock.recorder = &MockPlacementProviderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockPlacementProvider) EXPECT() *MockPlacementProviderMockRecorder {
	return m.recorder
}

// CreateTest mocks base method
func (m *MockPlacementProvider) CreateTest(ctx context.Context, domainName string) (*domain.TestDescriptor, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateTest", ctx, domainName)
	ret0, _ := ret[0].(*domain.TestDescriptor)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateTest indicates an expected call of CreateTest
func (mr *MockPlacementProviderMockRecorder) CreateTest(ctx, domainName interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateTest", reflect.TypeOf((*MockPlacementProvider)(nil).CreateTest), ctx, domainName)
}

// GetTest mocks base method
func (m *MockPlacementProvider) GetTest(ctx context.Context, testID string) (*domain.TestResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetTest", ctx, testID)
	ret0, _ := ret[0].(*domain.TestResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetTest indicates an expected call of GetTest
func (mr *MockPlacementProviderMockRecorder) GetTest(ctx, testID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetTest", reflect.TypeOf((*MockPlacementProvider)(nil).GetTest), ctx, testID)
}
