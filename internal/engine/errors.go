package engine

import "errors"

// ErrChronologyViolation reports a match fed into the replay whose date
// precedes the last processed date. The whole feature pipeline depends on
// strictly chronological processing, so this fails fast instead of being
// repaired in place.
var ErrChronologyViolation = errors.New("match ledger is not in chronological order")
