// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/rs/zerolog"

	"github.com/campusmatch/friendrec/internal/recommend"
)

// DuckDB is a recommend.CandidateRepository backed by a DuckDB database.
// It is safe for concurrent use; database/sql manages the connection
// pool.
type DuckDB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenDuckDB opens (creating if necessary) a DuckDB database at path and
// ensures the schema exists. An empty path opens an in-memory database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenDuckDB(ctx context.Context, path string, logger zerolog.Logger) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	r := &DuckDB{
		db:     db,
		logger: logger.With().Str("component", "repository").Logger(),
	}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return r, nil
}

// NewDuckDB wraps an existing handle without running migrations. Used by
// tests that seed their own schema.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewDuckDB(db *sql.DB, logger zerolog.Logger) *DuckDB {
	return &DuckDB{db: db, logger: logger.With().Str("component", "repository").Logger()}
}

// migrate creates the schema this adapter reads. The write path (profile
// CRUD, graph mutations, activity ingestion) lives outside this engine.
func (r *DuckDB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			id VARCHAR PRIMARY KEY,
			username VARCHAR NOT NULL,
			university VARCHAR NOT NULL DEFAULT '',
			department VARCHAR NOT NULL DEFAULT '',
			major VARCHAR NOT NULL DEFAULT '',
			graduation_year INTEGER NOT NULL DEFAULT 0,
			lat DOUBLE,
			lon DOUBLE,
			privacy VARCHAR NOT NULL DEFAULT 'public',
			last_active_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS user_interests (
			user_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			category VARCHAR NOT NULL DEFAULT '',
			weight DOUBLE NOT NULL DEFAULT 1.0
		)`,
		`CREATE TABLE IF NOT EXISTS connections (
			user_id VARCHAR NOT NULL,
			friend_id VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			blocker_id VARCHAR NOT NULL,
			blocked_id VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS interest_activity (
			user_id VARCHAR NOT NULL,
			interest VARCHAR NOT NULL,
			posts INTEGER NOT NULL DEFAULT 0,
			likes INTEGER NOT NULL DEFAULT 0,
			shares INTEGER NOT NULL DEFAULT 0,
			searches INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS interest_buckets (
			user_id VARCHAR NOT NULL,
			interest VARCHAR NOT NULL,
			bucket VARCHAR NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetUserProfile returns a profile by ID, or nil when absent.
func (r *DuckDB) GetUserProfile(ctx context.Context, userID string) (*recommend.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, university, department, major, graduation_year,
		       lat, lon, privacy, last_active_at
		FROM user_profiles WHERE id = ?`, userID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", userID, err)
	}

	interests, err := r.loadInterests(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	p.Interests = interests[userID]
	return p, nil
}

// GetCandidates returns the candidate pool for a user: every other
// profile, most recently active first, capped at limit. Exclusion
// filtering is the engine's job.
func (r *DuckDB) GetCandidates(ctx context.Context, userID string, limit int) ([]recommend.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, university, department, major, graduation_year,
		       lat, lon, privacy, last_active_at
		FROM user_profiles
		WHERE id <> ?
		ORDER BY last_active_at DESC NULLS LAST, id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates for %s: %w", userID, err)
	}
	defer rows.Close()

	var candidates []recommend.Profile
	var ids []string
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	interests, err := r.loadInterests(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Interests = interests[candidates[i].ID]
	}
	return candidates, nil
}

// GetBlockedUsers returns user IDs blocked in either direction.
func (r *DuckDB) GetBlockedUsers(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT blocked_id FROM blocks WHERE blocker_id = ?
		UNION
		SELECT blocker_id FROM blocks WHERE blocked_id = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query blocks for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// GetExistingConnections returns the user's accepted connections.
func (r *DuckDB) GetExistingConnections(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT friend_id FROM connections WHERE user_id = ?
		UNION
		SELECT user_id FROM connections WHERE friend_id = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query connections for %s: %w", userID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// GetBehavioralAggregates returns interaction counts and recency buckets
// for a batch of users.
func (r *DuckDB) GetBehavioralAggregates(ctx context.Context, userIDs []string) (map[string]recommend.BehavioralAggregates, error) {
	if len(userIDs) == 0 {
		return map[string]recommend.BehavioralAggregates{}, nil
	}

	placeholders, args := inArgs(userIDs)
	out := make(map[string]recommend.BehavioralAggregates, len(userIDs))

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, interest, SUM(posts), SUM(likes), SUM(shares), SUM(searches)
		FROM interest_activity
		WHERE user_id IN (`+placeholders+`)
		GROUP BY user_id, interest`, args...)
	if err != nil {
		return nil, fmt.Errorf("query interest activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, interest string
		var c recommend.BehaviorCounts
		if err := rows.Scan(&userID, &interest, &c.Posts, &c.Likes, &c.Shares, &c.Searches); err != nil {
			return nil, fmt.Errorf("scan interest activity: %w", err)
		}
		agg := out[userID]
		if agg.Counts == nil {
			agg.Counts = make(map[string]recommend.BehaviorCounts)
		}
		agg.Counts[interest] = c
		out[userID] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadBuckets(ctx, placeholders, args, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadBuckets fills the recency bucket lists of the aggregates map.
func (r *DuckDB) loadBuckets(ctx context.Context, placeholders string, args []interface{}, out map[string]recommend.BehavioralAggregates) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, interest, bucket
		FROM interest_buckets
		WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("query interest buckets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, interest, bucket string
		if err := rows.Scan(&userID, &interest, &bucket); err != nil {
			return fmt.Errorf("scan interest bucket: %w", err)
		}
		agg := out[userID]
		switch bucket {
		case "recent":
			agg.Recent = append(agg.Recent, interest)
		case "trending":
			agg.Trending = append(agg.Trending, interest)
		case "seasonal":
			agg.Seasonal = append(agg.Seasonal, interest)
		case "historical":
			agg.Historical = append(agg.Historical, interest)
		}
		out[userID] = agg
	}
	return rows.Err()
}

// loadInterests returns declared interests for a batch of users.
func (r *DuckDB) loadInterests(ctx context.Context, userIDs []string) (map[string][]recommend.WeightedInterest, error) {
	out := make(map[string][]recommend.WeightedInterest, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	placeholders, args := inArgs(userIDs)
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, name, category, weight
		FROM user_interests
		WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query interests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var wi recommend.WeightedInterest
		if err := rows.Scan(&userID, &wi.Name, &wi.Category, &wi.Weight); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		out[userID] = append(out[userID], wi)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (r *DuckDB) Close() error {
	return r.db.Close()
}

// rowScanner abstracts sql.Row and sql.Rows for scanProfile.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*recommend.Profile, error) {
	var p recommend.Profile
	var lat, lon sql.NullFloat64
	var lastActive sql.NullTime
	var privacy string

	err := row.Scan(&p.ID, &p.Username, &p.University, &p.Department, &p.Major,
		&p.GraduationYear, &lat, &lon, &privacy, &lastActive)
	if err != nil {
		return nil, err
	}

	if lat.Valid && lon.Valid {
		p.Location = &recommend.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
	}
	if lastActive.Valid {
		p.LastActiveAt = lastActive.Time.UTC()
	}
	p.Privacy = recommend.PrivacyLevel(privacy)
	return &p, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// inArgs builds a placeholder list and argument slice for an IN clause.
func inArgs(ids []string) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

// Ensure DuckDB implements the interface.
var _ recommend.CandidateRepository = (*DuckDB)(nil)
