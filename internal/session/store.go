package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"salesavor/internal/config"
	"salesavor/internal/salesapi"
	"salesavor/internal/services"
)

// ErrNameRequired is returned for operations on a blank session name.
var ErrNameRequired = fmt.Errorf("%w: session name required", services.ErrInput)

// Record is the resumable state of one named session.
type Record struct {
	Name            string
	ProfileID       string
	SelectedStoreID string
	GroceryList     *salesapi.GroceryList
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store persists session records in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open connects to the session database under the configured session
// directory, creating it on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(context.Background(), cfg.SessionDBPath())
}

// OpenPath connects to the database at path.
func OpenPath(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the record for name. The boolean is false when no record exists.
func (s *Store) Get(ctx context.Context, name string) (Record, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, false, ErrNameRequired
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM sessions WHERE name = ?`, name)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get session %q: %w", name, err)
	}
	return record, true, nil
}

// Save inserts or replaces the record named r.Name. CreatedAt survives
// replacement.
func (s *Store) Save(ctx context.Context, r Record) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return ErrNameRequired
	}
	listJSON, err := encodeList(r.GroceryList)
	if err != nil {
		return err
	}
	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (name, profile_id, selected_store_id, grocery_list_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET
             profile_id = excluded.profile_id,
             selected_store_id = excluded.selected_store_id,
             grocery_list_json = excluded.grocery_list_json,
             updated_at = excluded.updated_at`,
		name,
		nullableString(r.ProfileID),
		nullableString(r.SelectedStoreID),
		listJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("save session %q: %w", name, err)
	}
	return nil
}

// List returns every record, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM sessions ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete removes the record for name and reports whether one existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrNameRequired
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete session %q: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session %q: %w", name, err)
	}
	return affected > 0, nil
}

// Clear removes every record and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return res.RowsAffected()
}

const recordColumns = `name, profile_id, selected_store_id, grocery_list_json, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		record                       Record
		profileID, storeID, listJSON sql.NullString
		createdAt, updatedAt         string
	)
	if err := row.Scan(&record.Name, &profileID, &storeID, &listJSON, &createdAt, &updatedAt); err != nil {
		return Record{}, err
	}
	record.ProfileID = profileID.String
	record.SelectedStoreID = storeID.String
	if listJSON.Valid && listJSON.String != "" {
		var list salesapi.GroceryList
		if err := json.Unmarshal([]byte(listJSON.String), &list); err != nil {
			return Record{}, fmt.Errorf("decode grocery list of session %q: %w", record.Name, err)
		}
		record.GroceryList = &list
	}
	record.CreatedAt = parseTime(createdAt)
	record.UpdatedAt = parseTime(updatedAt)
	return record, nil
}

func encodeList(list *salesapi.GroceryList) (any, error) {
	if list == nil {
		return nil, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode grocery list: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
