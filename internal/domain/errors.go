// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the write collides with existing state, e.g. a second
// PRD for a project that already has one.
var ErrConflict = errors.New("conflict: resource already exists or was modified")

// ErrValidation marks malformed input. Wrap it as "%w: detail" so the HTTP
// layer can strip the prefix before returning the message to the caller.
var ErrValidation = errors.New("validation")
