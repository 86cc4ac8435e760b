package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) UpsertUser(ctx context.Context, u core.UserProfile) error {
	goals, err := json.Marshal(u.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, age, gender, location, goals, preferences, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, age = excluded.age, gender = excluded.gender, location = excluded.location,
		   goals = excluded.goals, preferences = excluded.preferences, updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Age, u.Gender, u.Location, string(goals), string(prefs), toUnix(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
	}
	return nil
}

func (r *UsersRepo) GetUser(ctx context.Context, id string) (*core.UserProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, age, gender, location, goals, preferences FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, err
}

func (r *UsersRepo) ListUsers(ctx context.Context) ([]core.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, age, gender, location, goals, preferences FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []core.UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*core.UserProfile, error) {
	var (
		u            core.UserProfile
		goals, prefs string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Age, &u.Gender, &u.Location, &goals, &prefs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if err := json.Unmarshal([]byte(goals), &u.Goals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
	}
	if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return &u, nil
}
