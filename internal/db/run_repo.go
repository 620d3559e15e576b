package db

import (
	"context"
	"log/slog"
	"time"

	"transitinsight/internal/types"
)

// RunRecord is one row of the narrative run log.
type RunRecord struct {
	Section    string
	State      types.PayloadState
	RulesFired int
	CreatedAt  time.Time
}

// RunRepository appends to the narrative_runs table:
//
//	CREATE TABLE narrative_runs (
//	    id          BIGSERIAL PRIMARY KEY,
//	    section     TEXT        NOT NULL,
//	    state       TEXT        NOT NULL,
//	    rules_fired INTEGER     NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type RunRepository struct {
	db     DBTX
	clock  types.Clock
	logger *slog.Logger
}

// NewRunRepository creates a RunRepository. A nil clock uses wall time.
func NewRunRepository(db DBTX, clock types.Clock, logger *slog.Logger) *RunRepository {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunRepository{db: db, clock: clock, logger: logger}
}

// Insert writes one run record.
func (r *RunRepository) Insert(ctx context.Context, rec RunRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO narrative_runs (section, state, rules_fired, created_at)
		VALUES ($1, $2, $3, $4)`,
		rec.Section, string(rec.State), rec.RulesFired, rec.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert narrative run", err)
	}
	return nil
}

// RecordRun satisfies the service's recorder contract. The run log is
// best-effort: a failed insert is logged and never fails the request.
func (r *RunRepository) RecordRun(ctx context.Context, section string, state types.PayloadState, rulesFired int) {
	rec := RunRecord{
		Section:    section,
		State:      state,
		RulesFired: rulesFired,
		CreatedAt:  r.clock.Now().UTC(),
	}
	if err := r.Insert(ctx, rec); err != nil {
		r.logger.WarnContext(ctx, "narrative run not recorded",
			"section", section,
			"error", err,
		)
	}
}
