package domain

import "errors"

// Engine error taxonomy. Every failure an operation can report maps to one
// of these sentinels so callers can branch with errors.Is; none of them is
// fatal to the process.
var (
	// ErrInvalidInput means a required field was missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount means a requested amount was non-positive or unparsable.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientQuantity means a consume request exceeded the lot's live
	// total. Nothing is applied on this path.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrItemNotFound means the referenced row does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrLotNotFound means no active rows match the lot's identity key.
	ErrLotNotFound = errors.New("lot not found")

	// ErrUnauthorized means the row's fridge is not owned by the acting user.
	ErrUnauthorized = errors.New("not the fridge owner")

	// ErrAlreadyDeleted means a discard targeted a row that is already
	// soft-deleted; repeating the discard must not double-log.
	ErrAlreadyDeleted = errors.New("item already deleted")

	// ErrUnitConflict means a row would join a lot of a different unit family
	// (say grams next to pieces), which has no meaningful sum.
	ErrUnitConflict = errors.New("unit family conflict within lot")

	// ErrTransactionFailed means the storage layer could not commit; no row
	// mutation or history entry from the operation persisted, so the caller
	// may retry.
	ErrTransactionFailed = errors.New("transaction failed")
)
