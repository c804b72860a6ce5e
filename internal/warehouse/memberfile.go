package warehouse

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"github.com/gyeh/riskscore/internal/model"
	embedsql "github.com/gyeh/riskscore/internal/sql"
)

const readBatchSize = 1024

// memberDateFormats are the date layouts accepted in member files.
var memberDateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"01/02/2006",
}

// LoadMemberFile streams a member Parquet file into risk.members via the
// COPY protocol. Files are deduplicated by SHA-256: a file already loaded is
// skipped unless force is set. Rows failing basic validation (unknown sex or
// metal level, unparseable birth date) are rejected and counted, not fatal.
func LoadMemberFile(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, path string, force bool) (*model.LoadSummary, error) {
	start := time.Now()

	sha, err := fileHash(path)
	if err != nil {
		return nil, fmt.Errorf("hash member file: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat member file: %w", err)
	}

	fileID, alreadyLoaded, err := registerMemberFile(ctx, pool, path, sha, stat.Size(), force)
	if err != nil {
		return nil, err
	}
	if alreadyLoaded {
		log.Info().Int64("member_file_id", fileID).Str("sha256", sha).
			Msg("file already loaded, skipping (use --force to re-load)")
		return &model.LoadSummary{
			FilePath:      path,
			FileSHA256:    sha,
			MemberFileID:  fileID,
			DurationTotal: time.Since(start),
		}, nil
	}

	// Re-loads replace any rows from a previous attempt for this file.
	if _, err := pool.Exec(ctx, "DELETE FROM risk.members WHERE member_file_id = $1", fileID); err != nil {
		return nil, fmt.Errorf("clear prior member rows: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open member file: %w", err)
	}
	defer f.Close()

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open member parquet: %w", err)
	}
	reader := parquet.NewGenericReader[model.MemberFileRow](pf)
	defer reader.Close()

	batchID := uuid.New()
	ch := make(chan *model.MemberRow, readBatchSize)
	errCh := make(chan error, 1)
	copyDone := make(chan struct{})

	var rowsRead, rowsRejected int64

	// Producer goroutine: read Parquet → normalize → push to channel.
	go func() {
		defer close(ch)
		buf := make([]model.MemberFileRow, readBatchSize)
		var rowNum int64

		for {
			n, readErr := reader.Read(buf)
			for i := 0; i < n; i++ {
				rowNum++
				rowsRead++

				row, convErr := toMemberRow(&buf[i], batchID, fileID, rowNum)
				if convErr != nil {
					rowsRejected++
					log.Warn().Err(convErr).Int64("row", rowNum).Msg("member row rejected")
					continue
				}

				select {
				case ch <- row:
				case <-copyDone:
					// CopyFrom aborted mid-stream and will never drain the
					// channel; stop producing instead of blocking forever.
					errCh <- nil
					return
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				errCh <- fmt.Errorf("read member parquet at row %d: %w", rowNum, readErr)
				return
			}
		}
		errCh <- nil
	}()

	rowsLoaded, copyErr := pool.CopyFrom(ctx,
		pgx.Identifier{"risk", "members"},
		model.MemberColumns(),
		NewChannelSource(ch),
	)
	close(copyDone)

	prodErr := <-errCh
	if prodErr != nil {
		_ = updateMemberFileStatus(ctx, pool, fileID, "failed")
		return nil, fmt.Errorf("member file producer: %w", prodErr)
	}
	if copyErr != nil {
		_ = updateMemberFileStatus(ctx, pool, fileID, "failed")
		return nil, fmt.Errorf("member copy: %w", copyErr)
	}

	if err := updateMemberFileStatus(ctx, pool, fileID, "loaded"); err != nil {
		return nil, err
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_loaded", rowsLoaded).
		Int64("rows_rejected", rowsRejected).
		Str("duration", dur.String()).
		Msg("member file load complete")

	return &model.LoadSummary{
		FilePath:      path,
		FileSHA256:    sha,
		MemberFileID:  fileID,
		LoadBatchID:   batchID.String(),
		RowsRead:      rowsRead,
		RowsLoaded:    rowsLoaded,
		RowsRejected:  rowsRejected,
		DurationTotal: dur,
	}, nil
}

// toMemberRow normalizes one raw file row into a DB-ready row, rejecting rows
// the engine could never score.
func toMemberRow(raw *model.MemberFileRow, batchID uuid.UUID, fileID, rowNum int64) (*model.MemberRow, error) {
	if raw.MemberID == "" {
		return nil, fmt.Errorf("empty member_id")
	}

	dob, err := parseMemberDate(raw.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", raw.MemberID, err)
	}

	sex, ok := model.ParseSex(raw.Sex)
	if !ok {
		return nil, fmt.Errorf("member %s: invalid sex %q", raw.MemberID, raw.Sex)
	}

	metal := model.Silver
	if raw.MetalLevel != "" {
		if metal, ok = model.ParseMetalLevel(raw.MetalLevel); !ok {
			return nil, fmt.Errorf("member %s: invalid metal level %q", raw.MemberID, raw.MetalLevel)
		}
	}

	months := raw.EnrollmentMonths
	if months == 0 {
		months = 12
	}
	if months < 1 || months > 12 {
		return nil, fmt.Errorf("member %s: enrollment_months %d outside 1-12", raw.MemberID, months)
	}

	return &model.MemberRow{
		LoadBatchID:      batchID,
		MemberFileID:     fileID,
		SourceRowNumber:  rowNum,
		MemberID:         raw.MemberID,
		DateOfBirth:      dob.Format("2006-01-02"),
		Sex:              string(sex),
		MetalLevel:       string(metal),
		EnrollmentMonths: months,
		Diagnoses:        nonEmpty(raw.Diagnoses),
		NDCCodes:         nonEmpty(raw.NDCCodes),
	}, nil
}

func parseMemberDate(s string) (time.Time, error) {
	for _, layout := range memberDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date_of_birth %q", s)
}

func nonEmpty(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func registerMemberFile(ctx context.Context, pool *pgxpool.Pool, path, sha string, size int64, force bool) (int64, bool, error) {
	var fileID int64
	err := pool.QueryRow(ctx, embedsql.RegisterMemberFile, filepath.Base(path), sha, size).Scan(&fileID)
	if err == nil {
		return fileID, false, nil
	}
	if err != pgx.ErrNoRows {
		return 0, false, fmt.Errorf("register member file: %w", err)
	}

	// Already exists (ON CONFLICT DO NOTHING returned no rows).
	var status string
	if err := pool.QueryRow(ctx, embedsql.LookupMemberFile, sha).Scan(&fileID, &status); err != nil {
		return 0, false, fmt.Errorf("lookup existing member file: %w", err)
	}
	if !force && status == "loaded" {
		return fileID, true, nil
	}
	if err := updateMemberFileStatus(ctx, pool, fileID, "pending"); err != nil {
		return 0, false, err
	}
	return fileID, false, nil
}

func updateMemberFileStatus(ctx context.Context, pool *pgxpool.Pool, fileID int64, status string) error {
	if _, err := pool.Exec(ctx, embedsql.UpdateMemberFileStatus, fileID, status); err != nil {
		return fmt.Errorf("update member file status: %w", err)
	}
	return nil
}

// fileHash computes the hex-encoded SHA-256 of the file at path.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
