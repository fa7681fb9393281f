package persistence

import "time"

// journal.at holds UTC unix milliseconds. ListRecent orders by it, so an
// unset timestamp is stamped at write time instead of stored as zero.
func encodeJournalTime(at time.Time, now func() time.Time) int64 {
	if at.IsZero() {
		at = now()
	}

	return at.UTC().UnixMilli()
}

func decodeJournalTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}
