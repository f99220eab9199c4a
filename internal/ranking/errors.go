package ranking

import "errors"

// ErrInvariantViolated signals a defect in grouping: an author group with no
// members. It can not happen with well-formed grouping and must not be
// silently recovered.
var ErrInvariantViolated = errors.New("ranking invariant violated")
