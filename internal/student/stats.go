package student

import "time"

// DashboardStats aggregates the whole collection for the dashboard view.
type DashboardStats struct {
	TotalStudents int
	// TotalCollected is lifetime revenue: the sum of every payment of every
	// student currently in the collection.
	TotalCollected float64
	// PendingAmount estimates outstanding dues as one cycle's fee per
	// overdue student. It is not an arrears balance across missed cycles.
	PendingAmount float64
	OverdueCount  int
}

// ComputeDashboardStats derives aggregate statistics from the collection.
// The computation is pure and order-independent; callers recompute it from
// the store on every read rather than maintaining it incrementally.
func ComputeDashboardStats(students []Student, now time.Time) DashboardStats {
	stats := DashboardStats{TotalStudents: len(students)}
	for _, s := range students {
		stats.TotalCollected += s.TotalPaid()
		if s.Status(now) == StatusOverdue {
			stats.OverdueCount++
			stats.PendingAmount += s.MonthlyFee
		}
	}
	return stats
}
