// Package errors provides the classified error primitives used across docsync.
//
// Every component boundary returns a ClassifiedError built with the fluent
// ErrorBuilder. The category names the subsystem that failed, the severity tells
// the caller whether the run can continue, and the context carries structured
// fields (URLs, status codes, response bodies) for logs and CLI output.
//
// Example usage:
//
//	err := errors.RemoteError("failed to create page").
//		WithContext("status", resp.StatusCode).
//		WithContext("response", body).
//		Build()
package errors
