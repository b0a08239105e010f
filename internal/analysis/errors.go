package analysis

import "errors"

// ErrInvalidPlanState is returned when a plan has no phases or its current index is out of range.
var ErrInvalidPlanState = errors.New("invalid plan state")

// ErrInvalidInput is returned for malformed inputs such as inverted ranges.
var ErrInvalidInput = errors.New("invalid input")

// ReasonInsufficientData marks a low-confidence default produced from too little history.
const ReasonInsufficientData = "insufficient_data"
