package scoring

import "errors"

var (
	// ErrInvalidIndicatorShape is returned when a reading's value or reference
	// range does not have the scalar/pair shape its kind requires.
	ErrInvalidIndicatorShape = errors.New("invalid indicator shape")

	// ErrUnknownIndicatorKind is returned for readings whose kind is not recognised.
	ErrUnknownIndicatorKind = errors.New("unknown indicator kind")

	// ErrInsufficientHistory is returned when a trend is requested over fewer than two points.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrInconsistentCategorySet is returned when breakdowns in a series carry different categories.
	ErrInconsistentCategorySet = errors.New("inconsistent category set")
)
