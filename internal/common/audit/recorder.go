// Package audit writes one transform_audit row per handled transform request.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "procurement-ai/internal/common/errors"
)

type Entry struct {
	RequestID  string
	Transform  string
	Outcome    string
	Degraded   bool
	StatusCode int
	Duration   time.Duration
	ErrorCode  string
	CreatedAt  time.Time
}

type Recorder struct {
	db *sql.DB
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record inserts the entry and returns the generated row id.
func (r *Recorder) Record(ctx context.Context, e Entry) (string, error) {
	id := uuid.New().String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var errorCode sql.NullString
	if e.ErrorCode != "" {
		errorCode = sql.NullString{String: e.ErrorCode, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transform_audit (
			id, request_id, transform, outcome, degraded,
			status_code, duration_ms, error_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		e.RequestID,
		e.Transform,
		e.Outcome,
		e.Degraded,
		e.StatusCode,
		e.Duration.Milliseconds(),
		errorCode,
		e.CreatedAt,
	)
	if err != nil {
		return "", apperrors.NewAuditInsertFailedError(err)
	}
	return id, nil
}
