package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFatal   ResultLabel = "fatal"
)

// OutcomeLabel is the final status of a sync run.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeDisabled OutcomeLabel = "disabled"
)

// PageAction is what the synchronizer did (or would do) with a page.
type PageAction string

const (
	PageCreated PageAction = "created"
	PageUpdated PageAction = "updated"
)

// Recorder defines observability hooks for sync runs and their stages.
// All methods must be safe to call on the NoopRecorder, which is the
// default when metrics are not configured.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome OutcomeLabel)
	IncPage(action PageAction)
	IncAttachmentUploaded()
	IncAttachmentSkipped()
	IncLinkResolved()
	IncLinkDangling()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)                 {}
func (NoopRecorder) IncPage(PageAction)                         {}
func (NoopRecorder) IncAttachmentUploaded()                     {}
func (NoopRecorder) IncAttachmentSkipped()                      {}
func (NoopRecorder) IncLinkResolved()                           {}
func (NoopRecorder) IncLinkDangling()                           {}
