package domain

import "errors"

var (
	ErrCityNotFound  = errors.New("city not found")
	ErrVenueNotFound = errors.New("venue not found")
	ErrEventNotFound = errors.New("event not found")
	ErrPostNotFound  = errors.New("post not found")

	// ErrDuplicateEvent signals that the storage layer's unique fingerprint
	// constraint rejected a create; the caller maps it to "already exists."
	ErrDuplicateEvent = errors.New("event with this fingerprint already exists")
)
