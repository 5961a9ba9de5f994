package store

import "time"

// Owner is the user a set of entries belongs to. Token authenticates API
// calls made on the owner's behalf.
type Owner struct {
	ID        string
	Name      string
	Token     string
	CreatedAt time.Time
}

// TimeEntry is one finished timer run.
type TimeEntry struct {
	ID        int64
	OwnerID   string
	Category  string
	Seconds   int64
	Color     string
	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}

// EntryFilter is used to filter time entries in queries.
type EntryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// DailyTotal is the time spent on one lowercased category during one day.
type DailyTotal struct {
	Date         string
	Category     string
	TotalSeconds int64
	EntryCount   int
}
