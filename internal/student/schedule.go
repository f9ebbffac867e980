package student

import "time"

// ProposeNextDueDate suggests the due date that follows a payment made now:
// one year ahead for annual plans, one month ahead for everything else.
// It is a front-end convenience; the ledger itself performs no date
// arithmetic and accepts whatever due date the caller supplies.
func ProposeNextDueDate(freq FeeFrequency, now time.Time) time.Time {
	if freq == FrequencyAnnually {
		return now.AddDate(1, 0, 0)
	}
	return now.AddDate(0, 1, 0)
}
