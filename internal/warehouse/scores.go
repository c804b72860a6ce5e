package warehouse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/riskscore/internal/model"
)

// CopyScores bulk-loads score outputs for a run into risk.scores.
func CopyScores(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID, outputs []*model.ScoreOutput) (int64, error) {
	ch := make(chan *model.ScoreRow, len(outputs))
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		for _, out := range outputs {
			row, err := toScoreRow(runID, out)
			if err != nil {
				errCh <- err
				return
			}
			select {
			case ch <- row:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- nil
	}()

	n, copyErr := pool.CopyFrom(ctx,
		pgx.Identifier{"risk", "scores"},
		model.ScoreColumns(),
		NewChannelSource(ch),
	)

	if prodErr := <-errCh; prodErr != nil {
		return n, fmt.Errorf("score producer: %w", prodErr)
	}
	if copyErr != nil {
		return n, fmt.Errorf("score copy: %w", copyErr)
	}
	return n, nil
}

func toScoreRow(runID uuid.UUID, out *model.ScoreOutput) (*model.ScoreRow, error) {
	components, err := json.Marshal(out.Components)
	if err != nil {
		return nil, fmt.Errorf("marshal components for %s: %w", out.MemberID, err)
	}
	details, err := json.Marshal(out.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal details for %s: %w", out.MemberID, err)
	}

	return &model.ScoreRow{
		RunID:             runID,
		MemberID:          out.MemberID,
		Model:             string(out.Details.Model),
		Age:               int32(out.Details.Age),
		RiskScore:         out.RiskScore,
		DemographicFactor: out.Details.DemographicFactor,
		HCCScore:          out.Details.HCCScore,
		RXCScore:          out.Details.RXCScore,
		HCCList:           out.HCCList,
		RXCList:           out.RXCList,
		ComponentsJSON:    components,
		DetailsJSON:       details,
	}, nil
}
