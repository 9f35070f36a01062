package clientdata

import "time"

// TTL constants added to time.Now() when storing to calculate expires_at.
const (
	// Column layouts change when the vendor re-indexes a state, roughly weekly at most
	TTLColumns = 7 * 24 * time.Hour
	// Value lists follow redistricting and vendor refreshes
	TTLColumnValues = 7 * 24 * time.Hour
)
