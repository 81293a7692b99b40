// Package audit persists a local trail of ticket status transitions.  The
// upstream API remains the source of truth for tickets themselves; the
// audit table records what this service attempted and how each attempt
// resolved, which is what billing disputes ask for.
package audit

import (
	"context"
	"database/sql"
	"time"
)

// Outcome classifies how a transition attempt ended.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"     // persisted and re-synced
	OutcomeRolledBack Outcome = "rolled_back" // persist failed, snapshot restored
	OutcomeRejected   Outcome = "rejected"    // gated or invalid, no network call
)

// Record is one transition attempt.  Amount is nil when the attempt did
// not carry a finalized amount.  CreatedAt is assigned by the database.
type Record struct {
	ID         string
	TicketID   string
	FromStatus string
	ToStatus   string
	Amount     *float64
	Outcome    Outcome
	Detail     string
	CreatedAt  time.Time
}

// Repo provides access to the transition_audit table.  All timestamps are
// stored in UTC.
type Repo struct {
	db *sql.DB
}

// NewRepo returns a Repo bound to the given database.
func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// EnsureSchema creates the audit table when it does not exist yet.  The
// service owns this table exclusively, so in-process creation keeps the
// deployment to a single binary.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS transition_audit (
		id          CHAR(36)      NOT NULL PRIMARY KEY,
		ticket_id   VARCHAR(64)   NOT NULL,
		from_status VARCHAR(16)   NOT NULL,
		to_status   VARCHAR(16)   NOT NULL,
		amount      DECIMAL(12,2) NULL,
		outcome     VARCHAR(16)   NOT NULL,
		detail      VARCHAR(512)  NOT NULL DEFAULT '',
		created_at  DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_transition_audit_ticket (ticket_id, created_at)
	)`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Insert stores one transition attempt.
func (r *Repo) Insert(ctx context.Context, rec Record) error {
	const q = `INSERT INTO transition_audit (id, ticket_id, from_status, to_status, amount, outcome, detail)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	var amount sql.NullFloat64
	if rec.Amount != nil {
		amount = sql.NullFloat64{Float64: *rec.Amount, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.TicketID, rec.FromStatus, rec.ToStatus, amount, string(rec.Outcome), rec.Detail)
	return err
}

// ListByTicket returns the most recent transition attempts for a ticket,
// newest first.
func (r *Repo) ListByTicket(ctx context.Context, ticketID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, ticket_id, from_status, to_status, amount, outcome, detail, created_at
	           FROM transition_audit
	           WHERE ticket_id = ?
	           ORDER BY created_at DESC, id DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, ticketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var amount sql.NullFloat64
		var outcome string
		if err := rows.Scan(&rec.ID, &rec.TicketID, &rec.FromStatus, &rec.ToStatus, &amount, &outcome, &rec.Detail, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if amount.Valid {
			a := amount.Float64
			rec.Amount = &a
		}
		rec.Outcome = Outcome(outcome)
		out = append(out, rec)
	}
	return out, rows.Err()
}
