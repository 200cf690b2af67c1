package mocks

import (
	"context"
	"reflect"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockCampaignPlatform is a mock of CampaignPlatform interface
type MockCampaignPlatform struct {
	ctrl     *gomock.Controller
	recorder *MockCampaignPlatformMockRecorder
}

// MockCampaignPlatformMockRecorder is the mock recorder for MockCampaignPlatform
type MockCampaignPlatformMockRecorder struct {
	mock *MockCampaignPlatform
}

// NewMockCampaignPlatform creates a new mock instance
func NewMockCampaignPlatform(ctrl *gomock.Controller) *MockCampaignPlatform {
	mock := &MockCampaignPlatform{ctrl: ctrl}
	mock.recorder = &MockCampaignPlatformMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockCampaignPlatform) EXPECT() *MockCampaignPlatformMockRecorder {
	return m.recorder
}

// UpdateEmailAccount mocks base method
func (m *MockCampaignPlatform) UpdateEmailAccount(ctx context.Context, externalAccountID string, update domain.EmailAccountUpdate) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateEmailAccount", ctx, externalAccountID, update)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateEmailAccount indicates an expected call of UpdateEmailAccount
func (mr *MockCampaignPlatformMockRecorder) UpdateEmailAccount(ctx, externalAccountID, update interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateEmailAccount", reflect.TypeOf((*MockCampaignPlatform)(nil).UpdateEmailAccount), ctx, externalAccountID, update)
}

// UpdateCampaignSettings mocks base method
func (m *MockCampaignPlatform) UpdateCampaignSettings(ctx context.Context, campaignID string, settings domain.CampaignSettings) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateCampaignSettings", ctx, campaignID, settings)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateCampaignSettings indicates an expected call of UpdateCampaignSettings
func (mr *MockCampaignPlatformMockRecorder) UpdateCampaignSettings(ctx, campaignID, settings interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateCampaignSettings", reflect.TypeOf((*MockCampaignPlatform)(nil).UpdateCampaignSettings), ctx, campaignID, settings)
}

// UpdateCampaignStatus mocks base method
func (m *MockCampaignPlatform) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateCampaignStatus", ctx, campaignID, status)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateCampaignStatus indicates an expected call of UpdateCampaignStatus
func (mr *MockCampaignPlatformMockRecorder) UpdateCampaignStatus(ctx, campaignID, status interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateCampaignStatus", reflect.TypeOf((*MockCampaignPlatform)(nil).UpdateCampaignStatus), ctx, campaignID, status)
}

// UpdateCampaignDomain mocks base method
func (m *MockCampaignPlatform) UpdateCampaignDomain(ctx context.Context, campaignID, fromExternalID, toExternalID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateCampaignDomain", ctx, campaignID, fromExternalID, toExternalID)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateCampaignDomain indicates an expected call of UpdateCampaignDomain
func (mr *MockCampaignPlatformMockRecorder) UpdateCampaignDomain(ctx, campaignID, fromExternalID, toExternalID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateCampaignDomain", reflect.TypeOf((*MockCampaignPlatform)(nil).UpdateCampaignDomain), ctx, campaignID, fromExternalID, toExternalID)
}
