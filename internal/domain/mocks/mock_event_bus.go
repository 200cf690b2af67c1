package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockEventBus is a mock of EventBus interface
type MockEventBus struct {
	ctrl     *gomock.Controller
	recorder *MockEventBusMockRecorder
}

// MockEventBusMockRecorder is the mock recorder for MockEventBus
type MockEventBusMockRecorder struct {
	mock *MockEventBus
}

// NewMockEventBus creates a new mock instance
func NewMockEventBus(ctrl *gomock.Controller) *MockEventBus {
	mock := &MockEventBus{ctrl: ctrl}
	mock.recorder = &MockEventBusMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockEventBus) EXPECT() *MockEventBusMockRecorder {
	return m.recorder
}

// Publish mocks base method
func (m *MockEventBus) Publish(ctx context.Context, event domain.EventPayload) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Publish", ctx, event)
}

// Publish indicates an expected call of Publish
func (mr *MockEventBusMockRecorder) Publish(ctx, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Publish", reflect.TypeOf((*MockEventBus)(nil).Publish), ctx, event)
}

// Subscribe mocks base method
func (m *MockEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.Subscription {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Subscribe", eventType, handler)
	ret0, _ := ret[0].(domain.Subscription)
	return ret0
}

// Subscribe indicates an expected call of Subscribe
func (mr *MockEventBusMockRecorder) Subscribe(eventType, handler interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Subscribe", reflect.TypeOf((*MockEventBus)(nil).Subscribe), eventType, handler)
}

// Unsubscribe mocks base method
func (m *MockEventBus) Unsubscribe(eventType domain.EventType, sub domain.Subscription) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Unsubscribe", eventType, sub)
}

// Unsubscribe indicates an expected call of Unsubscribe
func (mr *MockEventBusMockRecorder) Unsubscribe(eventType, sub interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Unsubscribe", reflect.TypeOf((*MockEventBus)(nil).Unsubscribe), eventType, sub)
}
