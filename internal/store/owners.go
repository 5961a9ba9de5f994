package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/timepie/internal/shared"
)

const ownerColumns = `id, name, token, created_at`

// CreateOwner registers a new owner with a fresh id and API token.
func (s *Store) CreateOwner(name string) (*Owner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: owner name is required", shared.ErrValidation)
	}

	id := shared.GenerateID()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO owners (id, name, token, created_at) VALUES (?, ?, ?, ?)`,
		id, name, shared.GenerateID(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	return s.GetOwner(id)
}

func (s *Store) GetOwner(id string) (*Owner, error) {
	return s.getOwner(`id = ?`, id)
}

func (s *Store) GetOwnerByName(name string) (*Owner, error) {
	return s.getOwner(`name = ?`, strings.TrimSpace(name))
}

// GetOwnerByToken resolves an API token. Unknown tokens are ErrUnauthorized.
func (s *Store) GetOwnerByToken(token string) (*Owner, error) {
	if token == "" {
		return nil, shared.ErrUnauthorized
	}
	o, err := s.getOwner(`token = ?`, token)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrUnauthorized
	}
	return o, err
}

// EnsureOwner returns the owner called name, creating it on first use.
func (s *Store) EnsureOwner(name string) (*Owner, error) {
	o, err := s.GetOwnerByName(name)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return s.CreateOwner(name)
}

func (s *Store) ListOwners() ([]Owner, error) {
	rows, err := s.db.Query(`SELECT ` + ownerColumns + ` FROM owners ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []Owner
	for rows.Next() {
		var o Owner
		var createdAt string
		if err := rows.Scan(&o.ID, &o.Name, &o.Token, &createdAt); err != nil {
			return nil, err
		}
		o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func (s *Store) getOwner(where string, arg any) (*Owner, error) {
	o := &Owner{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT `+ownerColumns+` FROM owners WHERE `+where, arg,
	).Scan(&o.ID, &o.Name, &o.Token, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get owner: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return o, nil
}
