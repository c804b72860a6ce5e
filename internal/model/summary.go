package model

import "time"

// RunSummary captures metrics from a single scoring run.
type RunSummary struct {
	RunID           string
	ModelYear       int
	BenefitYear     int
	MembersRead     int64
	MembersScored   int64
	MembersFailed   int64
	ScoresPersisted int64
	DurationLoad    time.Duration
	DurationScore   time.Duration
	DurationPersist time.Duration
	DurationTotal   time.Duration
}

// LoadSummary captures metrics from a single member file load.
type LoadSummary struct {
	FilePath      string
	FileSHA256    string
	MemberFileID  int64
	LoadBatchID   string
	RowsRead      int64
	RowsLoaded    int64
	RowsRejected  int64
	DurationTotal time.Duration
}
