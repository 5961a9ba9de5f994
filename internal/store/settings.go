package store

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sadopc/timepie/internal/shared"
)

// Known per-owner setting keys.
const (
	SettingPublic    = "public"
	SettingWeekStart = "week_start"
)

var settingDefaults = map[string]string{
	SettingPublic:    "false",
	SettingWeekStart: "monday",
}

// GetSetting returns the owner's value for key, falling back to the
// built-in default for known keys.
func (s *Store) GetSetting(ownerID, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE owner_id = ? AND key = ?`, ownerID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		if def, ok := settingDefaults[key]; ok {
			return def, nil
		}
		return "", fmt.Errorf("get setting %q: %w", key, shared.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(ownerID, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (owner_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(owner_id, key) DO UPDATE SET value = excluded.value`,
		ownerID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetAllSettings returns every known key (with defaults filled in) plus any
// extra keys stored for the owner, ordered by key.
func (s *Store) GetAllSettings(ownerID string) ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE owner_id = ? ORDER BY key`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	stored := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		stored[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for k, v := range settingDefaults {
		if _, ok := stored[k]; !ok {
			stored[k] = v
		}
	}
	settings := make([]Setting, 0, len(stored))
	for k, v := range stored {
		settings = append(settings, Setting{Key: k, Value: v})
	}
	slices.SortFunc(settings, func(a, b Setting) int { return strings.Compare(a.Key, b.Key) })
	return settings, nil
}

// IsPublic reports whether the owner shares a public read-only chart.
func (s *Store) IsPublic(ownerID string) (bool, error) {
	v, err := s.GetSetting(ownerID, SettingPublic)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}
