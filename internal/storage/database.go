// Package storage persists review stores and settings in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/srs"
)

// timeLayout keeps nanoseconds so reloaded timestamps compare equal.
const timeLayout = time.RFC3339Nano

// Options configures a DB. Zero Location and Clock select UTC and wall-clock
// time. Defaults are returned by LoadSettings for keys never saved.
type Options struct {
	Location *time.Location
	Clock    func() time.Time
	Defaults domain.Settings
}

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn     *sql.DB
	loc      *time.Location
	now      func() time.Time
	defaults domain.Settings
}

// Open creates a new database connection and migrates the schema.
func Open(dsn string, opts Options) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Grades are saved from background goroutines; one connection keeps
	// SQLite from reporting the file as locked.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, loc: opts.Location, now: opts.Clock, defaults: opts.Defaults}
	if db.loc == nil {
		db.loc = time.UTC
	}
	if db.now == nil {
		db.now = time.Now
	}
	if err := db.defaults.Validate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) today() domain.Day {
	return domain.DayOf(db.now(), db.loc)
}

// LoadStore returns the review store of key, applying the daily reset. A key
// never saved yields an empty store for today.
func (db *DB) LoadStore(ctx context.Context, key domain.Key) (domain.ReviewStore, error) {
	var reviewed, introduced, lastDate string
	row := db.conn.QueryRowContext(ctx, `
		SELECT reviewed_today, new_cards_today, last_review_date
		FROM review_stores WHERE deck = ? AND direction = ?
	`, key.Deck, key.Direction)
	err := row.Scan(&reviewed, &introduced, &lastDate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewReviewStore(db.today()), nil
	}
	if err != nil {
		return domain.ReviewStore{}, fmt.Errorf("failed to load store %s: %w", key, err)
	}

	store := domain.ReviewStore{LastReviewDate: domain.Day(lastDate)}
	if err := json.Unmarshal([]byte(reviewed), &store.ReviewedToday); err != nil {
		return domain.ReviewStore{}, fmt.Errorf("failed to decode reviewed_today for %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(introduced), &store.NewCardsToday); err != nil {
		return domain.ReviewStore{}, fmt.Errorf("failed to decode new_cards_today for %s: %w", key, err)
	}

	store.Cards, err = db.loadRecords(ctx, key)
	if err != nil {
		return domain.ReviewStore{}, err
	}

	store, _ = srs.ReconcileDay(store, db.today())
	return store, nil
}

func (db *DB) loadRecords(ctx context.Context, key domain.Key) (map[string]domain.ReviewRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT item_id, card, log
		FROM review_records WHERE deck = ? AND direction = ?
	`, key.Deck, key.Direction)
	if err != nil {
		return nil, fmt.Errorf("failed to get records for %s: %w", key, err)
	}
	defer rows.Close()

	records := make(map[string]domain.ReviewRecord)
	for rows.Next() {
		var id, card, log string
		if err := rows.Scan(&id, &card, &log); err != nil {
			return nil, fmt.Errorf("failed to scan record row for %s: %w", key, err)
		}
		rec := domain.ReviewRecord{ItemID: id}
		if err := json.Unmarshal([]byte(card), &rec.Card); err != nil {
			return nil, fmt.Errorf("failed to decode card %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(log), &rec.Log); err != nil {
			return nil, fmt.Errorf("failed to decode log of %s: %w", id, err)
		}
		records[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records for %s: %w", key, err)
	}
	return records, nil
}

// SaveStore replaces the persisted store of key in one transaction. Records
// are upserted; records absent from store are left in place since they are
// only removed by ClearStore.
func (db *DB) SaveStore(ctx context.Context, key domain.Key, store domain.ReviewStore) (err error) {
	reviewed, err := json.Marshal(nonNil(store.ReviewedToday))
	if err != nil {
		return err
	}
	introduced, err := json.Marshal(nonNil(store.NewCardsToday))
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save of %s: %w", key, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_stores (deck, direction, reviewed_today, new_cards_today, last_review_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck, direction) DO UPDATE SET
			reviewed_today = excluded.reviewed_today,
			new_cards_today = excluded.new_cards_today,
			last_review_date = excluded.last_review_date,
			updated_at = excluded.updated_at
	`, key.Deck, key.Direction, string(reviewed), string(introduced), string(store.LastReviewDate), db.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save store %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO review_records (deck, direction, item_id, state, due, card, log)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck, direction, item_id) DO UPDATE SET
			state = excluded.state,
			due = excluded.due,
			card = excluded.card,
			log = excluded.log
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record upsert: %w", err)
	}
	defer stmt.Close()

	for id, rec := range store.Cards {
		card, err := json.Marshal(rec.Card)
		if err != nil {
			return fmt.Errorf("failed to encode card %s: %w", id, err)
		}
		log, err := json.Marshal(nonNil(rec.Log))
		if err != nil {
			return fmt.Errorf("failed to encode log of %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, key.Deck, key.Direction, id, rec.Card.State.String(),
			rec.Card.Due.UTC().Format(timeLayout), string(card), string(log)); err != nil {
			return fmt.Errorf("failed to save record %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save of %s: %w", key, err)
	}
	return nil
}

// ClearStore deletes the persisted store of key and all of its records.
func (db *DB) ClearStore(ctx context.Context, key domain.Key) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clear of %s: %w", key, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM review_records WHERE deck = ? AND direction = ?`, key.Deck, key.Direction); err != nil {
		return fmt.Errorf("failed to delete records of %s: %w", key, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM review_stores WHERE deck = ? AND direction = ?`, key.Deck, key.Direction); err != nil {
		return fmt.Errorf("failed to delete store %s: %w", key, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear of %s: %w", key, err)
	}
	return nil
}

// LoadSettings returns the settings of key, or the defaults when none were saved.
func (db *DB) LoadSettings(ctx context.Context, key domain.Key) (domain.Settings, error) {
	var perDay int
	var levels string
	row := db.conn.QueryRowContext(ctx, `
		SELECT new_cards_per_day, levels FROM settings WHERE deck = ? AND direction = ?
	`, key.Deck, key.Direction)
	err := row.Scan(&perDay, &levels)
	if errors.Is(err, sql.ErrNoRows) {
		s := db.defaults
		s.Levels = append([]string(nil), db.defaults.Levels...)
		return s, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings %s: %w", key, err)
	}

	s := domain.Settings{NewCardsPerDay: perDay}
	if err := json.Unmarshal([]byte(levels), &s.Levels); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to decode levels for %s: %w", key, err)
	}
	if len(s.Levels) == 0 {
		s.Levels = nil
	}
	return s, nil
}

// SaveSettings validates and stores the settings of key.
func (db *DB) SaveSettings(ctx context.Context, key domain.Key, s domain.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	levels, err := json.Marshal(nonNil(s.Levels))
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO settings (deck, direction, new_cards_per_day, levels, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (deck, direction) DO UPDATE SET
			new_cards_per_day = excluded.new_cards_per_day,
			levels = excluded.levels,
			updated_at = excluded.updated_at
	`, key.Deck, key.Direction, s.NewCardsPerDay, string(levels), db.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save settings %s: %w", key, err)
	}
	return nil
}

// StoreSummary describes one persisted store for the CLI.
type StoreSummary struct {
	Key            domain.Key
	Cards          int
	LastReviewDate domain.Day
	States         map[fsrs.State]int
}

// Summaries lists every persisted store.
func (db *DB) Summaries(ctx context.Context) ([]StoreSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.deck, s.direction, s.last_review_date, r.state, COUNT(r.item_id)
		FROM review_stores s
		LEFT JOIN review_records r ON r.deck = s.deck AND r.direction = s.direction
		GROUP BY s.deck, s.direction, r.state
		ORDER BY s.deck, s.direction
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise stores: %w", err)
	}
	defer rows.Close()

	var out []StoreSummary
	for rows.Next() {
		var deck, direction, day string
		var state sql.NullString
		var n int
		if err := rows.Scan(&deck, &direction, &day, &state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		key := domain.Key{Deck: domain.Deck(deck), Direction: domain.Direction(direction)}
		if len(out) == 0 || out[len(out)-1].Key != key {
			out = append(out, StoreSummary{Key: key, LastReviewDate: domain.Day(day), States: map[fsrs.State]int{}})
		}
		if !state.Valid {
			continue
		}
		var st fsrs.State
		if err := st.UnmarshalText([]byte(state.String)); err != nil {
			return nil, fmt.Errorf("failed to decode state of %s: %w", key, err)
		}
		cur := &out[len(out)-1]
		cur.States[st] += n
		cur.Cards += n
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
