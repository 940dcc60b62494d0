// Package mocks holds shared test doubles for the service interfaces the HTTP
// layer depends on.
//
// MockJWTService uses function fields with fixed fallbacks. The service mocks
// embed testify's mock.Mock:
//
//	svc := &mocks.MockTaskService{}
//	svc.On("GetTask", mock.Anything, userID, taskID).Return(task, nil)
package mocks
