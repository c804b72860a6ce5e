// Package runner orchestrates one scoring run over the warehouse: load
// reference tables, read members, score them in parallel, and persist scores
// and per-member errors under a registered run.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/riskscore/internal/model"
	"github.com/gyeh/riskscore/internal/reftables"
	"github.com/gyeh/riskscore/internal/score"
	"github.com/gyeh/riskscore/internal/warehouse"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Options parameterize one scoring run.
type Options struct {
	ModelYear      int
	PredictionYear int // 0 = model year
	RunDescription string
	GroupID        int64 // 0 = allocate a new group
	Workers        int   // 0 = GOMAXPROCS
}

// MemberError pairs a member with the fatal error that prevented scoring it.
type MemberError struct {
	MemberID string
	Err      error
}

// Run executes the full scoring pipeline: tables → register → members →
// score → persist → finalize.
func Run(ctx context.Context, pool *pgxpool.Pool, store *reftables.Store, log zerolog.Logger, opts *Options) (*model.RunSummary, error) {
	totalStart := time.Now()

	benefitYear := opts.ModelYear
	if opts.PredictionYear > 0 {
		benefitYear = opts.PredictionYear
	}

	// Phase 1: reference tables. A missing year is fatal before any run row
	// is written.
	loadStart := time.Now()
	log.Info().Int("model_year", opts.ModelYear).Msg("loading reference tables")
	tables, err := store.Load(opts.ModelYear)
	if err != nil {
		return nil, &PipelineError{Phase: "tables", Err: err}
	}
	loadDur := time.Since(loadStart)

	// Phase 2: register the run.
	groupID := opts.GroupID
	if groupID == 0 {
		if groupID, err = warehouse.AllocateGroupID(ctx, pool); err != nil {
			return nil, &PipelineError{Phase: "register", Err: err}
		}
	}

	runID := uuid.New()
	rec := &warehouse.RunRecord{
		RunID:          runID,
		GroupID:        groupID,
		RunDescription: opts.RunDescription,
		AnalysisType:   "scoring",
		Calculator:     "hhs_hcc",
		ModelYear:      opts.ModelYear,
		BenefitYear:    benefitYear,
		Config: map[string]any{
			"model_year":      opts.ModelYear,
			"prediction_year": opts.PredictionYear,
		},
	}
	if err := warehouse.InsertRun(ctx, pool, rec); err != nil {
		return nil, &PipelineError{Phase: "register", Err: err}
	}
	if err := warehouse.UpdateRunStatus(ctx, pool, runID, warehouse.RunScoring); err != nil {
		return nil, &PipelineError{Phase: "register", Err: err}
	}

	// Phase 3: members.
	members, err := warehouse.ReadMembers(ctx, pool)
	if err != nil {
		_ = warehouse.UpdateRunStatus(ctx, pool, runID, warehouse.RunFailed)
		return nil, &PipelineError{Phase: "members", Err: err}
	}
	log.Info().Int("members", len(members)).Str("run_id", runID.String()).Msg("scoring members")

	// Phase 4: score. Members are independent, so scoring is a parallel map
	// whose output preserves input order.
	scoreStart := time.Now()
	scorer := score.New(tables, score.WithPredictionYear(opts.PredictionYear))
	outputs, memberErrs := ScoreMembers(scorer, members, opts.Workers)
	scoreDur := time.Since(scoreStart)

	// Phase 5: persist.
	persistStart := time.Now()
	persisted, err := warehouse.CopyScores(ctx, pool, runID, outputs)
	if err != nil {
		_ = warehouse.UpdateRunStatus(ctx, pool, runID, warehouse.RunFailed)
		return nil, &PipelineError{Phase: "persist", Err: err}
	}
	for _, me := range memberErrs {
		log.Warn().Str("member_id", me.MemberID).Err(me.Err).Msg("member not scored")
		if err := warehouse.RecordRunError(ctx, pool, runID, me.MemberID, me.Err); err != nil {
			_ = warehouse.UpdateRunStatus(ctx, pool, runID, warehouse.RunFailed)
			return nil, &PipelineError{Phase: "persist", Err: err}
		}
	}
	persistDur := time.Since(persistStart)

	// Phase 6: finalize.
	if err := warehouse.UpdateRunStatus(ctx, pool, runID, warehouse.RunCompleted); err != nil {
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	summary := &model.RunSummary{
		RunID:           runID.String(),
		ModelYear:       opts.ModelYear,
		BenefitYear:     benefitYear,
		MembersRead:     int64(len(members)),
		MembersScored:   int64(len(outputs)),
		MembersFailed:   int64(len(memberErrs)),
		ScoresPersisted: persisted,
		DurationLoad:    loadDur,
		DurationScore:   scoreDur,
		DurationPersist: persistDur,
		DurationTotal:   time.Since(totalStart),
	}

	log.Info().
		Str("run_id", summary.RunID).
		Int64("members_scored", summary.MembersScored).
		Int64("members_failed", summary.MembersFailed).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("scoring run complete")

	return summary, nil
}

// ScoreMembers scores members concurrently over a bounded worker set. The
// returned outputs preserve input order with failed members elided; failures
// are reported separately so a failed member is never mistaken for a
// zero-scored one.
func ScoreMembers(scorer *score.Scorer, members []*model.MemberInput, workers int) ([]*model.ScoreOutput, []MemberError) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*model.ScoreOutput, len(members))
	errs := make([]error, len(members))
	idxCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				results[i], errs[i] = scorer.Score(members[i])
			}
		}()
	}
	for i := range members {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	outputs := make([]*model.ScoreOutput, 0, len(members))
	var memberErrs []MemberError
	for i, m := range members {
		if errs[i] != nil {
			memberErrs = append(memberErrs, MemberError{MemberID: m.MemberID, Err: errs[i]})
			continue
		}
		outputs = append(outputs, results[i])
	}
	return outputs, memberErrs
}
