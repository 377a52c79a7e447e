package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/chris/bloom/internal/profile"
)

// ReadAll returns every stored profile keyed by user id. Rows whose data
// cannot be decoded are skipped and logged.
func (d *DB) ReadAll(ctx context.Context) (map[string]profile.Profile, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT user_id, data FROM profiles ORDER BY user_id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", markCorrupt(err))
	}
	defer rows.Close()

	out := make(map[string]profile.Profile)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", markCorrupt(err))
		}
		var p profile.Profile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			log.Printf("db: skipping profile %s: %v", id, err)
			continue
		}
		if p == nil {
			p = profile.Profile{}
		}
		out[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing profiles: %w", markCorrupt(err))
	}
	return out, nil
}

// WriteAll replaces the profiles table with the given document in a single
// transaction.
func (d *DB) WriteAll(ctx context.Context, profiles map[string]profile.Profile) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning profile write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM profiles"); err != nil {
		return fmt.Errorf("clearing profiles: %w", err)
	}

	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO profiles (user_id, data, last_updated) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing profile insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		p := profiles[id]
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding profile %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(data), p.Get(profile.LastUpdated)); err != nil {
			return fmt.Errorf("inserting profile %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing profiles: %w", err)
	}
	return nil
}
