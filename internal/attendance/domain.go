package attendance

import (
	"errors"
	"time"
)

// Record is one attendance entry. ClockOut is nil while the shift is open.
type Record struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	ClockIn    time.Time  `json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Open reports whether the shift has not been closed yet.
func (r Record) Open() bool {
	return r.ClockOut == nil
}

// ListFilter narrows attendance listings.
type ListFilter struct {
	EmployeeID int64
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

var (
	// ErrNotFound indicates a missing attendance record.
	ErrNotFound = errors.New("attendance: not found")
	// ErrAlreadyClockedIn indicates an open shift already exists.
	ErrAlreadyClockedIn = errors.New("attendance: already clocked in")
	// ErrNotClockedIn indicates there is no open shift to close.
	ErrNotClockedIn = errors.New("attendance: no open shift")
)
