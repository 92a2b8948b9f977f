package repository

import "errors"

var (
	// ErrNotFound marks lookups that matched no active row.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists marks unique-constraint conflicts on create.
	ErrAlreadyExists = errors.New("already exists")

	// ErrForbidden marks an attempt to act on another user's resource.
	ErrForbidden = errors.New("not permitted")

	// ErrSelfFollow is rejected before any storage access.
	ErrSelfFollow = errors.New("users cannot follow themselves")
)
