package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/zithekhosa/propflow/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store bundles the three workflow repositories over one SQLite database.
// All instances share the workflow_history table, keyed by workflow name,
// instance id, and sequence number.
type Store struct {
	db *sql.DB

	Tenancies *TenancyRepository
	Requests  *MaintenanceRepository
	Deals     *CommissionRepository
}

// Open opens a SQLite database, runs migrations, and returns a ready store.
func Open(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready store. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	s.Tenancies = &TenancyRepository{store: s}
	s.Requests = &MaintenanceRepository{store: s}
	s.Deals = &CommissionRepository{store: s}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// appendHistory inserts history entries beyond the rows already stored for
// the instance. Existing rows are never rewritten; history is append-only in
// storage as well as in memory.
func appendHistory(ctx context.Context, tx *sql.Tx, workflow string, inst domain.Instance) error {
	var stored int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workflow_history WHERE workflow = ? AND instance_id = ?`,
		workflow, inst.ID,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("counting history: %w", err)
	}

	for seq := stored; seq < len(inst.History); seq++ {
		entry := inst.History[seq]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO workflow_history (workflow, instance_id, seq, state, actor_id, actor_role, at, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			workflow, inst.ID, seq, string(entry.State),
			entry.Actor.ID, string(entry.Actor.Role),
			formatTime(entry.At), entry.Note,
		)
		if err != nil {
			return fmt.Errorf("inserting history entry %d: %w", seq, err)
		}
	}
	return nil
}

// loadHistory reads the full ordered history of an instance.
func loadHistory(ctx context.Context, db *sql.DB, workflow, instanceID string) ([]domain.HistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT state, actor_id, actor_role, at, note
		 FROM workflow_history
		 WHERE workflow = ? AND instance_id = ?
		 ORDER BY seq`,
		workflow, instanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var history []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var state, actorID, actorRole, at string
		if err := rows.Scan(&state, &actorID, &actorRole, &at, &entry.Note); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entry.State = domain.State(state)
		entry.Actor = domain.Actor{ID: actorID, Role: domain.Role(actorRole)}
		entry.At = parseTime(at)
		history = append(history, entry)
	}

	return history, rows.Err()
}

// casUpdate reports whether the version-guarded UPDATE hit a row and maps
// the miss to conflict or not-found.
func casUpdate(ctx context.Context, tx *sql.Tx, result sql.Result, table, id string, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ?`, table)
	if err := tx.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking existence: %w", err)
	}
	if exists == 0 {
		return notFound
	}
	return domain.ErrConflict
}

// formatOptionalTime stores the zero time as an empty string so unset
// notice fields round-trip as zero values.
func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return formatTime(t)
}

func parseOptionalTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	return parseTime(s)
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return ` WHERE ` + strings.Join(conditions, ` AND `)
}

func withPaging(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
