package ledger

import "sync"

var (
	defaultOnce   sync.Once
	defaultLedger *Ledger
)

// Default returns the process-wide ledger, creating it on first use with the
// real clock. Code that can take a *Ledger as a dependency should do so; the
// shared instance exists for call sites that cannot.
func Default() *Ledger {
	defaultOnce.Do(func() {
		defaultLedger = New(Options{})
	})
	return defaultLedger
}

// GetStats is an alias for Default.
func GetStats() *Ledger {
	return Default()
}
