// Package mock provides a controllable implementation of mbl.Session
// for testing purposes.
//
// It allows defining expectations for command execution, file transfers and
// shells, enabling deterministic unit tests for code built on top of a session.
//
// Usage:
//
//	s := mock.New()
//	s.On("Run", mock.Anything, mock.Anything, mock.Anything).
//		Run(mock.WriteOutput("Linux\n")).
//		Return(&mbl.Result{}, nil)
//	// pass 's' to your logic
package mock
