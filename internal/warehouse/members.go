package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/riskscore/internal/model"
	embedsql "github.com/gyeh/riskscore/internal/sql"
)

// ReadMembers returns every warehouse member in load order. Rows were
// validated at load time, so construction here does not re-reject; a row
// that fails validation anyway surfaces later as a per-member run error.
func ReadMembers(ctx context.Context, pool *pgxpool.Pool) ([]*model.MemberInput, error) {
	rows, err := pool.Query(ctx, embedsql.ReadMembers)
	if err != nil {
		return nil, fmt.Errorf("read members: %w", err)
	}
	defer rows.Close()

	var members []*model.MemberInput
	for rows.Next() {
		var (
			m      model.MemberInput
			dob    time.Time
			sex    string
			metal  string
			months int32
		)
		if err := rows.Scan(&m.MemberID, &dob, &sex, &metal, &months, &m.Diagnoses, &m.NDCCodes); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		m.DateOfBirth = dob
		m.Sex = model.Sex(sex)
		m.MetalLevel = model.MetalLevel(metal)
		m.EnrollmentMonths = int(months)
		m.ApplyDefaults()
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}
	return members, nil
}
