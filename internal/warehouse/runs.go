package warehouse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	embedsql "github.com/gyeh/riskscore/internal/sql"
)

// Run statuses, in lifecycle order.
const (
	RunPending   = "pending"
	RunScoring   = "scoring"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunRecord registers one scoring run in the run registry. Config carries the
// run's full parameterization for provenance.
type RunRecord struct {
	RunID          uuid.UUID
	GroupID        int64
	RunDescription string
	AnalysisType   string
	Calculator     string
	ModelYear      int
	BenefitYear    int
	Config         map[string]any
}

// AllocateGroupID reserves the next run group identifier. Runs compared or
// decomposed together share a group.
func AllocateGroupID(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var id int64
	if err := pool.QueryRow(ctx, embedsql.AllocateGroupID).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate group id: %w", err)
	}
	return id, nil
}

// InsertRun registers a run with status pending.
func InsertRun(ctx context.Context, pool *pgxpool.Pool, rec *RunRecord) error {
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}
	_, err = pool.Exec(ctx, embedsql.InsertRun,
		rec.RunID, rec.GroupID, rec.RunDescription, rec.AnalysisType,
		rec.Calculator, rec.ModelYear, rec.BenefitYear, cfg)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunStatus transitions a run; completed_at is stamped on terminal
// statuses.
func UpdateRunStatus(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID, status string) error {
	if _, err := pool.Exec(ctx, embedsql.UpdateRunStatus, runID, status); err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

// RecordRunError records a per-member fatal error so a failed member is
// never conflated with a zero-scored one.
func RecordRunError(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID, memberID string, memberErr error) error {
	if _, err := pool.Exec(ctx, embedsql.InsertRunError, runID, memberID, memberErr.Error()); err != nil {
		return fmt.Errorf("record run error: %w", err)
	}
	return nil
}
