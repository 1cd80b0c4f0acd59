// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios. ErrForbidden
// indicates that the current actor is not authorized to touch a resource
// owned by someone else, while ErrConflict signals that a write lost a race
// against a concurrent activation and may be retried.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP 403
// response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an activation write violates the single
// active slot for a (technician, purpose) pair because a concurrent
// activation committed first. The caller retries once; a second conflict is
// surfaced as a transient failure.
var ErrConflict = errors.New("conflict")
