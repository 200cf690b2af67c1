package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockNotificationService is a mock of NotificationService interface
type MockNotificationService struct {
	ctrl     *gomock.Controller
	recorder *MockNotificationServiceMockRecorder
}

// MockNotificationServiceMockRecorder is the mock recorder for MockNotificationService
type MockNotificationServiceMockRecorder struct {
	mock *MockNotificationService
}

// NewMockNotificationService creates a new mock instance
func NewMockNotificationService(ctrl *gomock.Controller) *MockNotificationService {
	mock := &MockNotificationService{ctrl: ctrl}
	mock.recorder = &MockNotificationServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockNotificationService) EXPECT() *MockNotificationServiceMockRecorder {
	return m.recorder
}

// Notify mocks base method
func (m *MockNotificationService) Notify(ctx context.Context, kind domain.NotificationKind, title, message, domainID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Notify", ctx, kind, title, message, domainID)
	ret0, _ := ret[0].(error)
	return ret0
}

// Notify indicates an expected call of Notify
func (mr *MockNotificationServiceMockRecorder) Notify(ctx, kind, title, message, domainID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Notify", reflect.TypeOf((*MockNotificationService)(nil).Notify), ctx, kind, title, message, domainID)
}

// NotifyLowDomainScore mocks base method
func (m *MockNotificationService) NotifyLowDomainScore(ctx context.Context, domainID string, score int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NotifyLowDomainScore", ctx, domainID, score)
	ret0, _ := ret[0].(error)
	return ret0
}

// NotifyLowDomainScore indicates an expected call of NotifyLowDomainScore
func (mr *MockNotificationServiceMockRecorder) NotifyLowDomainScore(ctx, domainID, score interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NotifyLowDomainScore", reflect.TypeOf((*MockNotificationService)(nil).NotifyLowDomainScore), ctx, domainID, score)
}

// NotifyFailedRotation mocks base method
func (m *MockNotificationService) NotifyFailedRotation(ctx context.Context, domainID, reason string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NotifyFailedRotation", ctx, domainID, reason)
	ret0, _ := ret[0].(error)
	return ret0
}

// NotifyFailedRotation indicates an expected call of NotifyFailedRotation
func (mr *MockNotificationServiceMockRecorder) NotifyFailedRotation(ctx, domainID, reason interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NotifyFailedRotation", reflect.TypeOf((*MockNotificationService)(nil).NotifyFailedRotation), ctx, domainID, reason)
}

// NotifyPoolStatus mocks base method
func (m *MockNotificationService) NotifyPoolStatus(ctx context.Context, pool domain.PoolType, available int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NotifyPoolStatus", ctx, pool, available)
	ret0, _ := ret[0].(error)
	return ret0
}

// NotifyPoolStatus indicates an expected call of NotifyPoolStatus
func (mr *MockNotificationServiceMockRecorder) NotifyPoolStatus(ctx, pool, available interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NotifyPoolStatus", reflect.TypeOf((*MockNotificationService)(nil).NotifyPoolStatus), ctx, pool, available)
}

// NotifyTestCompleted mocks base method
func (m *MockNotificationService) NotifyTestCompleted(ctx context.Context, domainID string, success bool, details string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NotifyTestCompleted", ctx, domainID, success, details)
	ret0, _ := ret[0].(error)
	return ret0
}

// NotifyTestCompleted indicates an expected call of NotifyTestCompleted
func (mr *MockNotificationServiceMockRecorder) NotifyTestCompleted(ctx, domainID, success, details interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NotifyTestCompleted", reflect.TypeOf((*MockNotificationService)(nil).NotifyTestCompleted), ctx, domainID, success, details)
}
