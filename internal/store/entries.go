package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/timepie/internal/shared"
)

const entryColumns = `id, owner_id, category, seconds, color, created_at`

// InsertEntry stores a finished timer run for ownerID.
func (s *Store) InsertEntry(ownerID, category string, seconds int64, color string) (*TimeEntry, error) {
	return s.InsertEntryAt(ownerID, category, seconds, color, time.Now())
}

// InsertEntryAt is InsertEntry with an explicit creation time.
func (s *Store) InsertEntryAt(ownerID, category string, seconds int64, color string, at time.Time) (*TimeEntry, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", shared.ErrValidation)
	}
	if seconds < 0 {
		return nil, fmt.Errorf("%w: seconds must not be negative", shared.ErrValidation)
	}

	res, err := s.db.Exec(
		`INSERT INTO time_entries (owner_id, category, seconds, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		ownerID, category, seconds, color, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEntry(id, ownerID)
}

// GetEntry returns entry id if it belongs to ownerID.
func (s *Store) GetEntry(id int64, ownerID string) (*TimeEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// DeleteEntry removes entry id. Entries of other owners are reported as
// not found.
func (s *Store) DeleteEntry(id int64, ownerID string) error {
	res, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete entry %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// ListEntries returns ownerID's entries, newest first.
func (s *Store) ListEntries(ownerID string, f EntryFilter) ([]TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE owner_id = ?`
	args := []any{ownerID}

	if f.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND created_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DailyTotals sums ownerID's seconds per day and lowercased category for
// entries created in [from, to).
func (s *Store) DailyTotals(ownerID string, from, to time.Time) ([]DailyTotal, error) {
	rows, err := s.db.Query(`
		SELECT date(created_at) AS day, lower(category) AS cat,
		       COALESCE(SUM(seconds), 0), COUNT(*)
		FROM time_entries
		WHERE owner_id = ? AND created_at >= ? AND created_at < ?
		GROUP BY day, cat
		ORDER BY day, cat`,
		ownerID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var totals []DailyTotal
	for rows.Next() {
		var dt DailyTotal
		if err := rows.Scan(&dt.Date, &dt.Category, &dt.TotalSeconds, &dt.EntryCount); err != nil {
			return nil, err
		}
		totals = append(totals, dt)
	}
	return totals, rows.Err()
}

// TodayTotal returns the seconds ownerID logged today (UTC).
func (s *Store) TodayTotal(ownerID string) (int64, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(seconds), 0)
		FROM time_entries
		WHERE owner_id = ? AND date(created_at) = ?`, ownerID, today,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*TimeEntry, error) {
	e := &TimeEntry{}
	var createdAt string
	if err := sc.Scan(&e.ID, &e.OwnerID, &e.Category, &e.Seconds, &e.Color, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}
