package fetcher

import (
	"go.uber.org/atomic"
)

// Stats accumulates run counters. A single Stats value is shared by the
// fetcher and the download driver of a session.
type Stats struct {
	// Requests counts every HTTP attempt, retries included.
	Requests atomic.Int64
	// Failures counts fetches that exhausted their retries.
	Failures atomic.Int64
	// Pages counts pages written to the archive.
	Pages atomic.Int64
}
