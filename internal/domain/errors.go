package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNoOwner            = errors.New("no authenticated owner")
	ErrInvalidState       = errors.New("invalid pipeline state")
	ErrGenerationInFlight = errors.New("generation already in flight")
	ErrBackendFailure     = errors.New("generation backend failure")
	ErrEmptyResult        = errors.New("backend produced no usable variants")
	ErrDuplicateRecord    = errors.New("duplicate photo record")
	ErrInvalidImage       = errors.New("invalid image payload")
)
