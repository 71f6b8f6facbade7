// Package mocks provides test doubles for the googleads client.
package mocks

import (
	"context"

	googleads "github.com/sells-group/keyword-cli/pkg/googleads"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SuggestGeoTargets provides a mock function with given fields: ctx, locale, name
func (_m *MockClient) SuggestGeoTargets(ctx context.Context, locale string, name string) ([]googleads.GeoTargetSuggestion, error) {
	ret := _m.Called(ctx, locale, name)

	if len(ret) == 0 {
		panic("no return value specified for SuggestGeoTargets")
	}

	var r0 []googleads.GeoTargetSuggestion
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) ([]googleads.GeoTargetSuggestion, error)); ok {
		return rf(ctx, locale, name)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]googleads.GeoTargetSuggestion)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// GenerateKeywordIdeas provides a mock function with given fields: ctx, req
func (_m *MockClient) GenerateKeywordIdeas(ctx context.Context, req googleads.KeywordIdeasRequest) (*googleads.KeywordIdeasResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for GenerateKeywordIdeas")
	}

	var r0 *googleads.KeywordIdeasResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, googleads.KeywordIdeasRequest) (*googleads.KeywordIdeasResponse, error)); ok {
		return rf(ctx, req)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*googleads.KeywordIdeasResponse)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
