package domain

import "errors"

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrMissingCredential is returned when approval would create an account
	// for an applicant who never completed self-service signup.
	ErrMissingCredential = errors.New("missing applicant password hash")

	// ErrTableMissing is returned when a required table is absent from the
	// schema. The pending migration must be applied.
	ErrTableMissing = errors.New("required table missing from schema")
)
