package services

import "errors"

// Sentinel errors for the service layer. Check with errors.Is.
var (
	// ErrNotFound: the item or profile doesn't exist for the requesting
	// learner. Also covers items owned by someone else, so existence is
	// never leaked across learners.
	ErrNotFound = errors.New("services: not found")
	// ErrEmptyLemma: a save or lookup was attempted with a blank lemma.
	ErrEmptyLemma = errors.New("services: lemma is required")
	// ErrInvalidPoints: a point award outside the accepted range.
	ErrInvalidPoints = errors.New("services: points must be positive")
)
