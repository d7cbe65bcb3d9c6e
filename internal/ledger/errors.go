package ledger

import "errors"

var ErrInvalidDuration = errors.New("ledger: duration must be a finite, non-negative number of milliseconds")
