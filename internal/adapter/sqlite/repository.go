package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// RecordRepository implements domain.RecordRepository using SQLite.
type RecordRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*RecordRepository, error) {
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

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*RecordRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &RecordRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *RecordRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *RecordRepository) DB() *sql.DB {
	return r.db
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

const timeFormat = "2006-01-02T15:04:05.000Z"

func (r *RecordRepository) Create(ctx context.Context, rec domain.Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workflow_records (domain, id, reference, status, property_id, let_date, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Domain), rec.ID, rec.Reference, string(rec.Status),
		nullString(rec.PropertyID), nullTime(rec.LetDate), rec.Version,
		rec.CreatedAt.Format(timeFormat),
		rec.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("record %s/%s already exists", rec.Domain, rec.ID)
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, d domain.Domain, id string) (domain.Record, error) {
	return r.scanRecord(r.db.QueryRowContext(ctx,
		`SELECT domain, id, reference, status, property_id, let_date, version, created_at, updated_at
		 FROM workflow_records WHERE domain = ? AND id = ?`, string(d), id,
	))
}

func (r *RecordRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Record, error) {
	query := `SELECT domain, id, reference, status, property_id, let_date, version, created_at, updated_at
	 FROM workflow_records WHERE domain = ?`
	args := []any{string(filter.Domain)}

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := r.scanRecordFromRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Update writes the record back, comparing-and-swapping on version so
// two concurrent transitions against the same record cannot silently
// overwrite each other.
func (r *RecordRepository) Update(ctx context.Context, rec domain.Record) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflow_records
		 SET reference = ?, status = ?, property_id = ?, let_date = ?, version = version + 1, updated_at = ?
		 WHERE domain = ? AND id = ? AND version = ?`,
		rec.Reference, string(rec.Status), nullString(rec.PropertyID), nullTime(rec.LetDate),
		time.Now().UTC().Format(timeFormat),
		string(rec.Domain), rec.ID, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		// Either the row is gone or someone else bumped the version.
		if _, err := r.GetByID(ctx, rec.Domain, rec.ID); err != nil {
			return err
		}
		return domain.ErrVersionConflict
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInto(scanner rowScanner) (domain.Record, error) {
	var rec domain.Record
	var d, status, createdAt, updatedAt string
	var propertyID, letDate sql.NullString

	err := scanner.Scan(&d, &rec.ID, &rec.Reference, &status, &propertyID, &letDate, &rec.Version, &createdAt, &updatedAt)
	if err != nil {
		return domain.Record{}, err
	}

	rec.Domain = domain.Domain(d)
	rec.Status = domain.Status(status)
	if propertyID.Valid {
		rec.PropertyID = propertyID.String
	}
	if letDate.Valid {
		t, err := time.Parse(timeFormat, letDate.String)
		if err == nil {
			rec.LetDate = &t
		}
	}
	rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	rec.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return rec, nil
}

// scanRecord scans a single row from QueryRow into a domain.Record.
func (r *RecordRepository) scanRecord(row *sql.Row) (domain.Record, error) {
	rec, err := scanInto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Record{}, domain.ErrRecordNotFound
		}
		return domain.Record{}, fmt.Errorf("scanning record: %w", err)
	}
	return rec, nil
}

// scanRecordFromRows scans a single row from Rows (used in List).
func (r *RecordRepository) scanRecordFromRows(rows *sql.Rows) (domain.Record, error) {
	rec, err := scanInto(rows)
	if err != nil {
		return domain.Record{}, fmt.Errorf("scanning record row: %w", err)
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeFormat), Valid: true}
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
