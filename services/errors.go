package services

import "errors"

// Failure taxonomy. Every failure is scoped to a single request; nothing
// here is fatal to the process. Handlers map these to user-facing replies
// with errors.Is.
var (
	// ErrNotAuthorized: user is not on the allow-list. Recoverable only
	// by admin action, never retried automatically.
	ErrNotAuthorized = errors.New("user not authorized")

	// Recognition outcomes. The model answered but found nothing usable;
	// no meal record is written.
	ErrNoFoodDetected  = errors.New("no food detected in image")
	ErrImageUnclear    = errors.New("image too unclear to analyze")
	ErrNoFoodDescribed = errors.New("text does not describe food")

	// ErrRecognitionFailed / ErrResolutionFailed: the external call failed
	// or timed out. Surfaced to the user as "try again"; no partial write.
	ErrRecognitionFailed = errors.New("food recognition failed")
	ErrResolutionFailed  = errors.New("nutrition lookup failed")

	// ErrDuplicateMeal: the same logical meal was already recorded. A
	// retry after an ambiguous failure lands here instead of
	// double-counting the daily summary.
	ErrDuplicateMeal = errors.New("meal already recorded")

	// ErrStoreUnavailable: persistence write failed; the caller may resend.
	ErrStoreUnavailable = errors.New("meal store unavailable")

	// ErrStoreRead: summary/history read failed. Distinct from
	// "legitimately empty", which is never an error.
	ErrStoreRead = errors.New("meal store read failed")
)
