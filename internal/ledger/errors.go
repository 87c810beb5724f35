package ledger

import "errors"

// Domain errors returned by Service. All of them are recoverable and
// meant to be shown to the caller as validation messages.
var (
	ErrSoldOut          = errors.New("not enough tickets available")
	ErrEventInactive    = errors.New("event is not open for booking")
	ErrForbidden        = errors.New("forbidden")
	ErrTooLate          = errors.New("cancellation window has closed")
	ErrNotEligible      = errors.New("only attendees with a completed booking can review")
	ErrDuplicateReview  = errors.New("event already reviewed")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrCommentRequired  = errors.New("comment is required")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrEventNotFound    = errors.New("event not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	ErrInvalidTransition = errors.New("booking status does not allow this operation")
	ErrCapacityBelowSold = errors.New("capacity cannot be lower than tickets already sold")
	ErrInvalidEvent      = errors.New("invalid event")
	ErrSlugTaken         = errors.New("slug already taken")

	// ErrInventoryInvariant means restoring tickets would push availability
	// above capacity. The surrounding transaction is rolled back.
	ErrInventoryInvariant = errors.New("ticket inventory out of bounds")
)
