package models

// StaffMember represents one person that can be placed on the roster.
// ID falls back to Name when empty; a member with neither is rejected
// before any assignment work happens.
type StaffMember struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	PreferredDates   []string `json:"preferred_dates,omitempty"`
	UnavailableDates []string `json:"unavailable_dates,omitempty"`
	// MaxDays caps how many dates this member may be assigned.
	// nil means no explicit cap: it defaults to the number of
	// requested dates for the run.
	MaxDays *int `json:"max_days,omitempty"`
	// MinDays is advisory. It is carried through for reporting and
	// validation but never enforced as a hard floor.
	MinDays int `json:"min_days,omitempty"`
}

// Constraints are the global per-day capacity bounds for a run.
type Constraints struct {
	MinStaffPerDay *int `json:"min_staff_per_day,omitempty"`
	MaxStaffPerDay *int `json:"max_staff_per_day,omitempty"`
}

// AssignInput is the request body for the assignment endpoints.
type AssignInput struct {
	Staff       []StaffMember `json:"staff"`
	Dates       []string      `json:"dates"`
	Constraints Constraints   `json:"constraints"`
	// Format selects the response projection: "" or "days" for the
	// per-day rollup, "flat" for one record per assignment.
	Format string `json:"format,omitempty"`
}

// ScheduleItem is one date's assignments, in assignment order.
type ScheduleItem struct {
	Date  string   `json:"date"`
	Staff []string `json:"staff"`
	Count int      `json:"count"`
}

// FlatAssignment is the flat projection: one record per staff/date
// pair with placeholder shift times, for callers that want a plain
// assignment list instead of the per-day rollup.
type FlatAssignment struct {
	StaffID   string `json:"staff_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Stats summarizes one assignment run.
type Stats struct {
	TotalAssignments  int            `json:"total_assignments"`
	StaffDistribution map[string]int `json:"staff_distribution"`
	AveragePerStaff   float64        `json:"average_per_staff"`
	DaysWithShortage  int            `json:"days_with_shortage"`
}

// AssignResponse is the envelope returned by the assignment endpoints.
// Error is populated and Schedule/Stats omitted when Success is false.
type AssignResponse struct {
	Success  bool             `json:"success"`
	Schedule []ScheduleItem   `json:"schedule,omitempty"`
	Shifts   []FlatAssignment `json:"shifts,omitempty"`
	Stats    *Stats           `json:"stats,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Error    string           `json:"error,omitempty"`
}
