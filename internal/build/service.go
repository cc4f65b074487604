package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/metrics"
)

// SyncService executes documentation syncs.
type SyncService interface {
	Run(ctx context.Context, req SyncRequest) (*SyncResult, error)
}

// SyncRequest contains the inputs of one run.
type SyncRequest struct {
	Config config.Resolved
	// DryRun stops after the remote lookup: the result describes what would
	// be created or updated, and nothing is written.
	DryRun bool
}

// SyncStatus represents the outcome of a run.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPlanned SyncStatus = "planned"
	SyncStatusFailed  SyncStatus = "failed"
)

// IsSuccess returns true if the run completed.
func (s SyncStatus) IsSuccess() bool {
	return s == SyncStatusSuccess || s == SyncStatusPlanned
}

// PageSummary describes what happened, or would happen, to one page.
type PageSummary struct {
	Title    string
	Source   string
	Parent   string
	Section  bool
	Action   metrics.PageAction
	RemoteID string
	// Version is the version after the write, or the current one in a dry run.
	Version     int
	Fingerprint string
	Assets      int
	Links       int
}

// SyncResult contains the outcome of a run.
type SyncResult struct {
	RunID  string
	Status SyncStatus
	// SpaceID is the id of the target space, known once the lookup stage ran.
	SpaceID string
	Pages   []PageSummary

	PagesCreated        int
	PagesUpdated        int
	AttachmentsUploaded int
	AttachmentsSkipped  int
	LinksResolved       int
	LinksDangling       int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
