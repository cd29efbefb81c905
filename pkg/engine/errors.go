package engine

import "errors"

// Sentinel errors returned by Assign. All of them describe
// caller-correctable input problems; check with errors.Is.
var (
	// ErrEmptyRoster is returned when no staff members are supplied.
	ErrEmptyRoster = errors.New("no staff members supplied")

	// ErrEmptyDateList is returned when no dates are supplied.
	ErrEmptyDateList = errors.New("no dates supplied")

	// ErrMissingStaffID is returned when a staff member has neither
	// an id nor a name. The engine never fabricates identifiers;
	// callers must supply a stable one.
	ErrMissingStaffID = errors.New("staff member has no id or name")

	// ErrInvalidConstraint is returned for out-of-range capacity
	// constraints, such as max_staff_per_day below 1.
	ErrInvalidConstraint = errors.New("invalid constraint")
)
