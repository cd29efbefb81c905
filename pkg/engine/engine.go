// Package engine implements the roster assignment algorithm: a greedy,
// deterministic single pass over the requested dates that balances
// workload while honoring availability and preference constraints.
package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

// Scoring weights. Preference for a date dominates accumulated load
// unless the workload gap reaches ten prior assignments; both values
// are part of the behavioral contract with existing callers.
const (
	LoadWeight      = 10
	PreferredCredit = 100
)

// Placeholder shift times used by the flat projection.
const (
	DefaultShiftStart = "09:00"
	DefaultShiftEnd   = "17:00"
)

// Result is the outcome of one assignment run.
type Result struct {
	Schedule []models.ScheduleItem
	Stats    models.Stats
	Warnings []string
}

// Assign produces a schedule for the given roster and dates.
//
// Dates are opaque tokens processed in the exact order given; roster
// order is the stable base order for tie-breaking. The run owns all of
// its working state, so concurrent calls are fully independent, and
// identical inputs always produce identical output.
func Assign(roster []models.StaffMember, dates []string, cons models.Constraints) (*Result, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if len(dates) == 0 {
		return nil, ErrEmptyDateList
	}

	minPerDay := 1
	if cons.MinStaffPerDay != nil {
		minPerDay = *cons.MinStaffPerDay
		if minPerDay < 0 {
			return nil, fmt.Errorf("%w: min_staff_per_day must be >= 0, got %d", ErrInvalidConstraint, minPerDay)
		}
	}
	maxPerDay := len(roster)
	if cons.MaxStaffPerDay != nil {
		maxPerDay = *cons.MaxStaffPerDay
		if maxPerDay < 1 {
			return nil, fmt.Errorf("%w: max_staff_per_day must be >= 1, got %d", ErrInvalidConstraint, maxPerDay)
		}
	}

	// Resolve identities and index the date sets up front so the
	// per-date loop is pure lookups.
	ids := make([]string, len(roster))
	preferred := make([]map[string]bool, len(roster))
	unavailable := make([]map[string]bool, len(roster))
	maxDays := make([]int, len(roster))
	for i, m := range roster {
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if id == "" {
			return nil, fmt.Errorf("%w: staff index %d", ErrMissingStaffID, i)
		}
		ids[i] = id
		preferred[i] = dateSet(m.PreferredDates)
		unavailable[i] = dateSet(m.UnavailableDates)
		maxDays[i] = len(dates)
		if m.MaxDays != nil {
			maxDays[i] = *m.MaxDays
		}
	}

	// Per-run work counts, keyed by roster position. Allocated here,
	// discarded with the run.
	counts := make([]int, len(roster))

	type candidate struct {
		idx   int
		score int
	}

	schedule := make([]models.ScheduleItem, 0, len(dates))
	for _, date := range dates {
		candidates := make([]candidate, 0, len(roster))
		for i := range roster {
			// Unavailability beats preference for the same date.
			if unavailable[i][date] || counts[i] >= maxDays[i] {
				continue
			}
			score := counts[i] * LoadWeight
			if preferred[i][date] {
				score -= PreferredCredit
			}
			candidates = append(candidates, candidate{idx: i, score: score})
		}

		// Stable sort: equal scores fall back to roster order, which
		// governs who is picked among equally ranked candidates.
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].score < candidates[b].score
		})

		assigned := make([]string, 0, maxPerDay)
		for _, c := range candidates {
			if len(assigned) >= maxPerDay {
				break
			}
			counts[c.idx]++
			assigned = append(assigned, ids[c.idx])
		}

		schedule = append(schedule, models.ScheduleItem{
			Date:  date,
			Staff: assigned,
			Count: len(assigned),
		})
	}

	var warnings []string
	for _, item := range schedule {
		if item.Count < minPerDay {
			warnings = append(warnings, fmt.Sprintf(
				"%s is understaffed: requires %d, assigned %d", item.Date, minPerDay, item.Count))
		}
	}

	total := 0
	distribution := make(map[string]int, len(roster))
	for i, id := range ids {
		distribution[id] += counts[i]
		total += counts[i]
	}

	return &Result{
		Schedule: schedule,
		Stats: models.Stats{
			TotalAssignments:  total,
			StaffDistribution: distribution,
			AveragePerStaff:   roundToTenth(float64(total) / float64(len(roster))),
			DaysWithShortage:  len(warnings),
		},
		Warnings: warnings,
	}, nil
}

// Flatten projects the schedule into one record per assignment, with
// placeholder shift times. Both projections come from the same run, so
// they always agree on every assignment.
func (r *Result) Flatten() []models.FlatAssignment {
	flat := make([]models.FlatAssignment, 0, r.Stats.TotalAssignments)
	for _, item := range r.Schedule {
		for _, id := range item.Staff {
			flat = append(flat, models.FlatAssignment{
				StaffID:   id,
				Date:      item.Date,
				StartTime: DefaultShiftStart,
				EndTime:   DefaultShiftEnd,
			})
		}
	}
	return flat
}

// roundToTenth rounds half up to one decimal place.
func roundToTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func dateSet(dates []string) map[string]bool {
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}
