// Package ledger provides an append-only history of gate decisions for
// auditing and inspection.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huerizon/skysyncd/internal/engine"
)

// Entry represents a single recorded decision
type Entry struct {
	ID        string
	Target    string
	Outcome   engine.Outcome
	Reason    engine.Reason
	Error     string
	Command   *engine.Command
	Timestamp time.Time
}

// Ledger provides append-only decision logging
type Ledger struct {
	db *sql.DB
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Append records one decision. Applied decisions carry the emitted command
// as the payload; suppressed and rejected ones carry only reason or error.
func (l *Ledger) Append(d engine.Decision) error {
	var payloadJSON []byte
	if d.Command != nil {
		var err error
		payloadJSON, err = json.Marshal(d.Command)
		if err != nil {
			return fmt.Errorf("failed to marshal command: %w", err)
		}
	}

	errStr := ""
	if d.Err != nil {
		errStr = d.Err.Error()
	}

	_, err := l.db.Exec(`
		INSERT INTO decision_ledger (id, target, outcome, reason, error, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), d.Target, string(d.Outcome), string(d.Reason), errStr, string(payloadJSON), d.At.UTC().Unix())

	return err
}

// Recent returns the most recent entries, newest first.
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, target, outcome, reason, error, payload, timestamp
		FROM decision_ledger
		ORDER BY timestamp DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// RecentForTarget returns the most recent entries for one target light.
func (l *Ledger) RecentForTarget(target string, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, target, outcome, reason, error, payload, timestamp
		FROM decision_ledger
		WHERE target = ?
		ORDER BY timestamp DESC, id
		LIMIT ?
	`, target, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := l.db.Exec(`
		DELETE FROM decision_ledger WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (l *Ledger) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var reason, errStr, payloadStr sql.NullString
		var timestamp int64

		err := rows.Scan(&entry.ID, &entry.Target, &entry.Outcome, &reason, &errStr, &payloadStr, &timestamp)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		if reason.Valid {
			entry.Reason = engine.Reason(reason.String)
		}
		if errStr.Valid {
			entry.Error = errStr.String
		}
		if payloadStr.Valid && payloadStr.String != "" {
			var cmd engine.Command
			if err := json.Unmarshal([]byte(payloadStr.String), &cmd); err != nil {
				return nil, fmt.Errorf("failed to unmarshal command: %w", err)
			}
			entry.Command = &cmd
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
