package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

// Compile-time check: TransitionLog implements domain.TransitionLog.
var _ domain.TransitionLog = (*TransitionLog)(nil)

// TransitionLog implements the append-only audit trail on SQLite.
// Rows are write-once: no update or delete statement exists here.
type TransitionLog struct {
	db *sql.DB
}

// NewTransitionLog wraps a database connection that has already been
// migrated (the status_transitions table ships in the repository's
// migration set).
func NewTransitionLog(db *sql.DB) *TransitionLog {
	return &TransitionLog{db: db}
}

func (l *TransitionLog) Append(ctx context.Context, rec domain.TransitionRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	effects, err := json.Marshal(rec.SideEffects)
	if err != nil {
		return fmt.Errorf("encoding side effects: %w", err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO status_transitions (domain, entity_id, from_status, to_status, user_id, notes, metadata, side_effects, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Domain), rec.EntityID, string(rec.FromStatus), string(rec.ToStatus),
		rec.UserID, rec.Notes, string(metadata), string(effects),
		rec.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting transition record: %w", err)
	}
	return nil
}

// History returns matching entries oldest first. The rowid tiebreak
// keeps entries written within the same millisecond in insertion order.
func (l *TransitionLog) History(ctx context.Context, filter domain.HistoryFilter) ([]domain.TransitionRecord, error) {
	query := `SELECT domain, entity_id, from_status, to_status, user_id, notes, metadata, side_effects, created_at
	 FROM status_transitions WHERE 1=1`
	var args []any

	if filter.Domain != nil {
		query += ` AND domain = ?`
		args = append(args, string(*filter.Domain))
	}
	if filter.EntityID != "" {
		query += ` AND entity_id = ?`
		args = append(args, filter.EntityID)
	}

	query += ` ORDER BY created_at ASC, rowid ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transition records: %w", err)
	}
	defer rows.Close()

	var records []domain.TransitionRecord
	for rows.Next() {
		rec, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanTransition(rows *sql.Rows) (domain.TransitionRecord, error) {
	var rec domain.TransitionRecord
	var d, from, to, metadata, effects, createdAt string

	err := rows.Scan(&d, &rec.EntityID, &from, &to, &rec.UserID, &rec.Notes, &metadata, &effects, &createdAt)
	if err != nil {
		return domain.TransitionRecord{}, fmt.Errorf("scanning transition row: %w", err)
	}

	rec.Domain = domain.Domain(d)
	rec.FromStatus = domain.Status(from)
	rec.ToStatus = domain.Status(to)
	if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
		return domain.TransitionRecord{}, fmt.Errorf("decoding metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(effects), &rec.SideEffects); err != nil {
		return domain.TransitionRecord{}, fmt.Errorf("decoding side effects: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)

	return rec, nil
}
