// Package mocks provides shared test doubles for the auth, store and service
// interfaces consumed by the HTTP layer.
//
// The function-field mocks (MockJWTService, MockUserStore,
// MockPasswordVerifier) fall back to simple default values when a function is
// not set. The service mocks embed testify's mock.Mock:
//
//	tasks := &mocks.MockTaskService{}
//	tasks.On("GetTask", mock.Anything, user, int64(1)).Return(task, nil)
package mocks
