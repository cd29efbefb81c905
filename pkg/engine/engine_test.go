package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

func intPtr(v int) *int { return &v }

func staff(id string, opts ...func(*models.StaffMember)) models.StaffMember {
	m := models.StaffMember{ID: id}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func withMaxDays(n int) func(*models.StaffMember) {
	return func(m *models.StaffMember) { m.MaxDays = intPtr(n) }
}

func withPreferred(dates ...string) func(*models.StaffMember) {
	return func(m *models.StaffMember) { m.PreferredDates = dates }
}

func withUnavailable(dates ...string) func(*models.StaffMember) {
	return func(m *models.StaffMember) { m.UnavailableDates = dates }
}

func TestAssign_EmptyRoster(t *testing.T) {
	_, err := Assign(nil, []string{"2024-01-15"}, models.Constraints{})
	require.ErrorIs(t, err, ErrEmptyRoster)
}

func TestAssign_EmptyDateList(t *testing.T) {
	_, err := Assign([]models.StaffMember{staff("a")}, nil, models.Constraints{})
	require.ErrorIs(t, err, ErrEmptyDateList)
}

func TestAssign_MissingIdentity(t *testing.T) {
	roster := []models.StaffMember{staff("a"), {}}
	_, err := Assign(roster, []string{"2024-01-15"}, models.Constraints{})
	require.ErrorIs(t, err, ErrMissingStaffID)
	assert.Contains(t, err.Error(), "index 1")
}

func TestAssign_NameFallback(t *testing.T) {
	roster := []models.StaffMember{{Name: "Alice"}}
	res, err := Assign(roster, []string{"2024-01-15"}, models.Constraints{})
	require.NoError(t, err)
	require.Equal(t, []string{"Alice"}, res.Schedule[0].Staff)
}

func TestAssign_InvalidConstraints(t *testing.T) {
	roster := []models.StaffMember{staff("a")}
	dates := []string{"2024-01-15"}

	_, err := Assign(roster, dates, models.Constraints{MaxStaffPerDay: intPtr(0)})
	require.ErrorIs(t, err, ErrInvalidConstraint)

	_, err = Assign(roster, dates, models.Constraints{MinStaffPerDay: intPtr(-1)})
	require.ErrorIs(t, err, ErrInvalidConstraint)
}

// Two members, two dates, one slot per day: the tie on day one goes to
// the earlier roster entry, and the load balance hands day two to the
// other member.
func TestAssign_AlternatesUnderLoadBalance(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withMaxDays(2)),
		staff("B", withMaxDays(2)),
	}
	dates := []string{"d1", "d2"}
	cons := models.Constraints{MinStaffPerDay: intPtr(1), MaxStaffPerDay: intPtr(1)}

	res, err := Assign(roster, dates, cons)
	require.NoError(t, err)

	require.Len(t, res.Schedule, 2)
	assert.Equal(t, []string{"A"}, res.Schedule[0].Staff)
	assert.Equal(t, []string{"B"}, res.Schedule[1].Staff)
	assert.Equal(t, 2, res.Stats.TotalAssignments)
	assert.Empty(t, res.Warnings)
}

// A lone member unavailable on the only date: the run still succeeds,
// with an empty day and a shortage warning.
func TestAssign_UnavailableProducesShortage(t *testing.T) {
	roster := []models.StaffMember{staff("A", withUnavailable("d1"))}
	cons := models.Constraints{MinStaffPerDay: intPtr(1), MaxStaffPerDay: intPtr(1)}

	res, err := Assign(roster, []string{"d1"}, cons)
	require.NoError(t, err)

	require.Len(t, res.Schedule, 1)
	assert.Equal(t, 0, res.Schedule[0].Count)
	assert.Empty(t, res.Schedule[0].Staff)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "d1")
	assert.Contains(t, res.Warnings[0], "requires 1")
	assert.Contains(t, res.Warnings[0], "assigned 0")
	assert.Equal(t, 1, res.Stats.DaysWithShortage)
}

// Preference outweighs one prior assignment: A takes d1 on the roster
// tie, then still wins d2 because -100 dominates the +10 load penalty.
func TestAssign_PreferenceBeatsLoad(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withPreferred("d2")),
		staff("B"),
	}
	cons := models.Constraints{MaxStaffPerDay: intPtr(1)}

	res, err := Assign(roster, []string{"d1", "d2"}, cons)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, res.Schedule[0].Staff)
	assert.Equal(t, []string{"A"}, res.Schedule[1].Staff)
	assert.Equal(t, map[string]int{"A": 2, "B": 0}, res.Stats.StaffDistribution)
}

// A ten-assignment workload gap exactly cancels the preference credit,
// dropping the decision back to roster order.
func TestAssign_TenAssignmentGapNeutralizesPreference(t *testing.T) {
	dates := make([]string, 0, 11)
	for i := 1; i <= 11; i++ {
		dates = append(dates, fmt.Sprintf("d%02d", i))
	}
	// A prefers every date; B is unavailable until the final one, so A
	// enters the last day carrying ten assignments against B's zero.
	roster := []models.StaffMember{
		staff("A", withPreferred(dates...)),
		staff("B", withUnavailable(dates[:10]...)),
	}
	cons := models.Constraints{MaxStaffPerDay: intPtr(1)}

	res, err := Assign(roster, dates, cons)
	require.NoError(t, err)

	// Last day: A scores 10*10-100 = 0, B scores 0; roster order keeps
	// A ahead on the exact tie.
	assert.Equal(t, []string{"A"}, res.Schedule[10].Staff)
	assert.Equal(t, 11, res.Stats.StaffDistribution["A"])
}

func TestAssign_UnavailabilityBeatsPreference(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withPreferred("d1"), withUnavailable("d1")),
		staff("B"),
	}
	cons := models.Constraints{MaxStaffPerDay: intPtr(1)}

	res, err := Assign(roster, []string{"d1"}, cons)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, res.Schedule[0].Staff)
}

func TestAssign_MaxDaysCap(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withMaxDays(1)),
		staff("B"),
	}
	cons := models.Constraints{MaxStaffPerDay: intPtr(1)}

	res, err := Assign(roster, []string{"d1", "d2", "d3"}, cons)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.StaffDistribution["A"])
	assert.Equal(t, 2, res.Stats.StaffDistribution["B"])
}

func TestAssign_MaxDaysZeroMeansNever(t *testing.T) {
	roster := []models.StaffMember{staff("A", withMaxDays(0))}
	res, err := Assign(roster, []string{"d1"}, models.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.TotalAssignments)
	assert.Len(t, res.Warnings, 1)
}

func TestAssign_MaxStaffPerDayCap(t *testing.T) {
	roster := []models.StaffMember{staff("A"), staff("B"), staff("C")}
	cons := models.Constraints{MaxStaffPerDay: intPtr(2)}

	res, err := Assign(roster, []string{"d1"}, cons)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Schedule[0].Count)
	assert.Equal(t, []string{"A", "B"}, res.Schedule[0].Staff)
}

// Defaults: min 1, max = roster size, max days = number of dates.
func TestAssign_Defaults(t *testing.T) {
	roster := []models.StaffMember{staff("A"), staff("B")}
	res, err := Assign(roster, []string{"d1", "d2"}, models.Constraints{})
	require.NoError(t, err)

	for _, item := range res.Schedule {
		assert.Equal(t, 2, item.Count)
	}
	assert.Equal(t, 4, res.Stats.TotalAssignments)
	assert.InDelta(t, 2.0, res.Stats.AveragePerStaff, 1e-9)
}

func TestAssign_SchedulePerDateInOrder(t *testing.T) {
	roster := []models.StaffMember{staff("A")}
	dates := []string{"d3", "d1", "d2"}

	res, err := Assign(roster, dates, models.Constraints{})
	require.NoError(t, err)

	require.Len(t, res.Schedule, len(dates))
	for i, item := range res.Schedule {
		assert.Equal(t, dates[i], item.Date)
	}
}

func TestAssign_TotalsAgree(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withUnavailable("d2")),
		staff("B", withMaxDays(2)),
		staff("C", withPreferred("d1", "d3")),
	}
	cons := models.Constraints{MinStaffPerDay: intPtr(2), MaxStaffPerDay: intPtr(2)}

	res, err := Assign(roster, []string{"d1", "d2", "d3", "d4"}, cons)
	require.NoError(t, err)

	fromDistribution := 0
	for _, n := range res.Stats.StaffDistribution {
		fromDistribution += n
	}
	fromSchedule := 0
	for _, item := range res.Schedule {
		fromSchedule += item.Count
		assert.Equal(t, len(item.Staff), item.Count)
	}
	assert.Equal(t, res.Stats.TotalAssignments, fromDistribution)
	assert.Equal(t, res.Stats.TotalAssignments, fromSchedule)
}

func TestAssign_Deterministic(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withPreferred("d1", "d4")),
		staff("B", withUnavailable("d2")),
		staff("C", withMaxDays(3)),
		staff("D"),
	}
	dates := []string{"d1", "d2", "d3", "d4", "d5"}
	cons := models.Constraints{MinStaffPerDay: intPtr(2), MaxStaffPerDay: intPtr(3)}

	first, err := Assign(roster, dates, cons)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Assign(roster, dates, cons)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssign_StableTieBreakFollowsRosterOrder(t *testing.T) {
	roster := []models.StaffMember{staff("Z"), staff("M"), staff("A")}
	cons := models.Constraints{MaxStaffPerDay: intPtr(3)}

	res, err := Assign(roster, []string{"d1"}, cons)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "M", "A"}, res.Schedule[0].Staff)
}

func TestAssign_AverageRoundsHalfUp(t *testing.T) {
	// 1 assignment over 4 staff = 0.25, which rounds up to 0.3.
	roster := []models.StaffMember{staff("A"), staff("B"), staff("C"), staff("D")}
	cons := models.Constraints{MaxStaffPerDay: intPtr(1)}

	res, err := Assign(roster, []string{"d1"}, cons)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Stats.AveragePerStaff, 1e-9)
}

func TestFlatten_AgreesWithRollup(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withPreferred("d2")),
		staff("B"),
		staff("C", withUnavailable("d1")),
	}
	cons := models.Constraints{MaxStaffPerDay: intPtr(2)}

	res, err := Assign(roster, []string{"d1", "d2", "d3"}, cons)
	require.NoError(t, err)

	flat := res.Flatten()
	require.Len(t, flat, res.Stats.TotalAssignments)

	i := 0
	for _, item := range res.Schedule {
		for _, id := range item.Staff {
			assert.Equal(t, id, flat[i].StaffID)
			assert.Equal(t, item.Date, flat[i].Date)
			assert.Equal(t, DefaultShiftStart, flat[i].StartTime)
			assert.Equal(t, DefaultShiftEnd, flat[i].EndTime)
			i++
		}
	}
}

func TestAssign_NoUnavailableAssignments(t *testing.T) {
	roster := []models.StaffMember{
		staff("A", withUnavailable("d1", "d3")),
		staff("B", withUnavailable("d2")),
		staff("C"),
	}
	dates := []string{"d1", "d2", "d3", "d4"}

	res, err := Assign(roster, dates, models.Constraints{})
	require.NoError(t, err)

	blocked := map[string]map[string]bool{
		"A": {"d1": true, "d3": true},
		"B": {"d2": true},
	}
	for _, item := range res.Schedule {
		for _, id := range item.Staff {
			assert.False(t, blocked[id][item.Date],
				"%s assigned on unavailable date %s", id, item.Date)
		}
	}
}
