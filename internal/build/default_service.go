package build

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/confluence"
	"git.home.luguber.info/inful/docsync/internal/git"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/notify"
	"git.home.luguber.info/inful/docsync/internal/observability"
	"git.home.luguber.info/inful/docsync/internal/publish"
	"git.home.luguber.info/inful/docsync/internal/site"
	"git.home.luguber.info/inful/docsync/internal/storage"
	"git.home.luguber.info/inful/docsync/internal/tree"
	"git.home.luguber.info/inful/docsync/internal/version"
	"git.home.luguber.info/inful/docsync/internal/xref"
)

// Stage names used for logging and metrics.
const (
	StageLoad         = "load"
	StageTree         = "tree"
	StageRender       = "render"
	StageDisambiguate = "disambiguate"
	StageResolve      = "resolve"
	StageLookup       = "lookup"
	StageWrite        = "write"
	StageUpload       = "upload"
)

// ClientFactory builds the wiki client for one run.
type ClientFactory func(cfg config.Resolved) (publish.API, error)

// PublisherFactory builds the event publisher for one run.
type PublisherFactory func(cfg config.Resolved) (notify.Publisher, error)

// HeadReader returns the git HEAD of the repository containing dir.
type HeadReader func(dir string) (git.Head, bool, error)

// DefaultSyncService is the standard implementation of SyncService.
type DefaultSyncService struct {
	clientFactory    ClientFactory
	publisherFactory PublisherFactory
	headReader       HeadReader
	recorder         metrics.Recorder
	now              func() time.Time
}

// NewSyncService creates a DefaultSyncService talking to Confluence over HTTP.
func NewSyncService() *DefaultSyncService {
	return &DefaultSyncService{
		clientFactory:    NewConfluenceClient,
		publisherFactory: NewPublisher,
		headReader:       git.ReadHead,
		recorder:         metrics.NoopRecorder{},
		now:              time.Now,
	}
}

// NewConfluenceClient is the default ClientFactory. Each call builds its own
// http.Client so nothing is shared between runs.
func NewConfluenceClient(cfg config.Resolved) (publish.API, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = confluence.DefaultTimeout
	}
	c, err := confluence.New(cfg.Host, cfg.Username, cfg.Password,
		confluence.WithHTTPClient(&http.Client{Timeout: timeout}),
		confluence.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, err
	}
	slog.Debug("Created Confluence client", logfields.URL(c.BaseURL()))
	return c, nil
}

// NewPublisher is the default PublisherFactory: NATS when a URL is
// configured, otherwise nothing.
func NewPublisher(cfg config.Resolved) (notify.Publisher, error) {
	if cfg.NATSURL == "" {
		return notify.Noop{}, nil
	}
	p, err := notify.NewNATSPublisher(cfg.NATSURL, cfg.Subject)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// WithClientFactory allows injecting a custom wiki client (for testing).
func (s *DefaultSyncService) WithClientFactory(f ClientFactory) *DefaultSyncService {
	s.clientFactory = f
	return s
}

// WithPublisherFactory sets how page events are published.
func (s *DefaultSyncService) WithPublisherFactory(f PublisherFactory) *DefaultSyncService {
	s.publisherFactory = f
	return s
}

// WithHeadReader overrides the git HEAD lookup used for version messages.
func (s *DefaultSyncService) WithHeadReader(f HeadReader) *DefaultSyncService {
	s.headReader = f
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultSyncService) WithRecorder(rec metrics.Recorder) *DefaultSyncService {
	if rec != nil {
		s.recorder = rec
	}
	return s
}

// run carries the state of one Run call.
type run struct {
	svc    *DefaultSyncService
	req    SyncRequest
	result *SyncResult

	project *site.Project
	pages   []*tree.Page
	api     publish.API
	sync    *publish.Synchronizer
	events  notify.Publisher
	commit  string
}

// Run executes the complete sync pipeline.
func (s *DefaultSyncService) Run(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	start := s.now()
	r := &run{
		svc: s,
		req: req,
		result: &SyncResult{
			RunID:     start.Format("20060102-150405"),
			StartTime: start,
		},
	}
	ctx = observability.WithRunID(ctx, r.result.RunID)
	ctx = observability.WithSpace(ctx, req.Config.Space)

	err := r.execute(ctx)

	res := r.result
	res.EndTime = s.now()
	res.Duration = res.EndTime.Sub(start)
	s.recorder.ObserveRunDuration(res.Duration)
	if err != nil {
		res.Status = SyncStatusFailed
		s.recorder.IncRunOutcome(metrics.OutcomeFailed)
		observability.ErrorContext(ctx, "Sync failed", logfields.Error(err))
		return res, err
	}
	res.Status = SyncStatusSuccess
	if req.DryRun {
		res.Status = SyncStatusPlanned
	}
	s.recorder.IncRunOutcome(metrics.OutcomeSuccess)
	observability.InfoContext(ctx, "Sync complete",
		slog.String("status", string(res.Status)),
		logfields.Space(req.Config.Space),
		slog.String("space_id", res.SpaceID),
		slog.Int("pages", len(res.Pages)),
		slog.Int("created", res.PagesCreated),
		slog.Int("updated", res.PagesUpdated),
		slog.Int("attachments", res.AttachmentsUploaded),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

type stage struct {
	name string
	fn   func(context.Context) error
}

func (r *run) execute(ctx context.Context) error {
	stages := []stage{
		{StageLoad, r.load},
		{StageTree, r.buildTree},
		{StageRender, r.render},
		{StageDisambiguate, r.disambiguate},
		{StageResolve, r.resolve},
		{StageLookup, r.lookup},
	}
	if !r.req.DryRun {
		stages = append(stages, stage{StageWrite, r.write}, stage{StageUpload, r.upload})
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runStage(ctx, st); err != nil {
			return err
		}
	}
	r.summarize()
	return nil
}

func (r *run) runStage(ctx context.Context, st stage) error {
	name := st.name
	start := time.Now()
	ctx = observability.WithStage(ctx, name)
	observability.DebugContext(ctx, "Stage started")

	err := st.fn(ctx)
	r.svc.recorder.ObserveStageDuration(name, time.Since(start))
	if err != nil {
		r.svc.recorder.IncStageResult(name, metrics.ResultFatal)
		return err
	}
	r.svc.recorder.IncStageResult(name, metrics.ResultSuccess)
	return nil
}

func (r *run) load(ctx context.Context) error {
	p, err := site.Load(r.req.Config.Project)
	if err != nil {
		return err
	}
	r.project = p
	observability.InfoContext(ctx, "Loaded documentation project",
		logfields.Path(p.ConfigFile), slog.String("docs_dir", p.DocsDir))
	return nil
}

func (r *run) buildTree(ctx context.Context) error {
	r.pages = tree.Build(r.project.Nav)
	observability.InfoContext(ctx, "Built page tree", slog.Int("pages", len(r.pages)))
	return nil
}

func (r *run) render(ctx context.Context) error {
	var opts []storage.Option
	if r.req.Config.RawHTML {
		opts = append(opts, storage.WithRawHTML())
	}
	renderer := storage.NewRenderer(opts...)
	for _, p := range r.pages {
		if p.IsSection() {
			continue
		}
		body, err := site.ReadDocument(p.Source)
		if err != nil {
			return err
		}
		res, err := renderer.Render(p.SrcPath(), []byte(body))
		if err != nil {
			return err
		}
		p.Markup, p.Assets, p.Links = res.Markup, res.Assets, res.Links
		observability.DebugContext(ctx, "Rendered page",
			logfields.Source(p.SrcPath()),
			slog.Int("assets", len(p.Assets)),
			slog.Int("links", len(p.Links)))
	}
	return nil
}

func (r *run) disambiguate(context.Context) error {
	tree.Disambiguate(r.pages)
	return nil
}

func (r *run) resolve(ctx context.Context) error {
	stats := xref.NewResolver().WithRecorder(r.svc.recorder).ResolveLinks(ctx, r.pages)
	xref.RewriteAssets(r.pages)
	r.result.LinksResolved = stats.Resolved
	r.result.LinksDangling = stats.Dangling
	return nil
}

func (r *run) lookup(ctx context.Context) error {
	api, err := r.svc.clientFactory(r.req.Config)
	if err != nil {
		return err
	}
	r.api = api
	r.sync = publish.NewSynchronizer(api).WithRecorder(r.svc.recorder)
	target := publish.Target{SpaceKey: r.req.Config.Space, ParentTitle: r.req.Config.ParentPage}
	if err := r.sync.Prepare(ctx, target); err != nil {
		return err
	}
	r.result.SpaceID = r.sync.SpaceID()
	return r.sync.Lookup(ctx, r.pages)
}

func (r *run) write(ctx context.Context) error {
	r.commit = r.headCommit(ctx)
	r.events = r.publisher(ctx)
	defer func() {
		if err := r.events.Close(); err != nil {
			observability.WarnContext(ctx, "Failed to close event publisher", logfields.Error(err))
		}
	}()

	r.sync.
		WithVersionMessage(func(p *tree.Page) string { return VersionMessage(Fingerprint(p), r.commit) }).
		OnWrite(r.publishEvent)
	return r.sync.Write(ctx, r.pages)
}

func (r *run) upload(ctx context.Context) error {
	stats, err := publish.NewUploader(r.api).WithRecorder(r.svc.recorder).Upload(ctx, r.pages)
	r.result.AttachmentsUploaded = stats.Uploaded
	r.result.AttachmentsSkipped = stats.Skipped
	return err
}

func (r *run) headCommit(ctx context.Context) string {
	if r.svc.headReader == nil {
		return ""
	}
	head, ok, err := r.svc.headReader(r.project.Root)
	if err != nil {
		observability.WarnContext(ctx, "Failed to read git HEAD", logfields.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return head.ShortCommit()
}

// publisher never fails the run: page events are best effort.
func (r *run) publisher(ctx context.Context) notify.Publisher {
	if r.svc.publisherFactory == nil {
		return notify.Noop{}
	}
	p, err := r.svc.publisherFactory(r.req.Config)
	if err != nil {
		observability.WarnContext(ctx, "Page events disabled", logfields.Error(err))
		return notify.Noop{}
	}
	return p
}

func (r *run) publishEvent(ctx context.Context, e publish.PageEvent) {
	ev := notify.Event{
		RunID:    r.result.RunID,
		Action:   string(e.Action),
		Space:    r.req.Config.Space,
		Title:    e.Page.DisplayName,
		PageID:   e.Page.RemoteID,
		ParentID: e.ParentID,
		Source:   e.Page.SrcPath(),
	}
	if e.Action == metrics.PageUpdated {
		ev.Version = e.Page.RemoteVersion
	} else {
		ev.Version = 1
	}
	if err := r.events.Publish(ctx, ev); err != nil {
		observability.WarnContext(ctx, "Failed to publish page event", logfields.Page(ev.Title), logfields.Error(err))
	}
}

func (r *run) summarize() {
	res := r.result
	res.Pages = make([]PageSummary, 0, len(r.pages))
	for _, p := range r.pages {
		ps := PageSummary{
			Title:       p.DisplayName,
			Source:      p.SrcPath(),
			Section:     p.IsSection(),
			RemoteID:    p.RemoteID,
			Version:     p.RemoteVersion,
			Fingerprint: Fingerprint(p),
			Assets:      len(p.Assets),
			Links:       len(p.Links),
		}
		if parent := tree.ParentOf(r.pages, p); parent != nil {
			ps.Parent = parent.DisplayName
		} else {
			ps.Parent = r.req.Config.ParentPage
		}
		// HasVersion is only set by the lookup, so it tells whether the
		// page existed before this run.
		if p.HasVersion {
			ps.Action = metrics.PageUpdated
			res.PagesUpdated++
		} else {
			ps.Action = metrics.PageCreated
			res.PagesCreated++
			if !r.req.DryRun {
				ps.Version = 1
			}
		}
		res.Pages = append(res.Pages, ps)
	}
}

// Fingerprint identifies the content a page is written with.
func Fingerprint(p *tree.Page) string {
	return mdfp.CalculateFingerprintFromParts("title: "+p.DisplayName, p.Markup)
}

// VersionMessage is the note attached to a page update.
func VersionMessage(fingerprint, commit string) string {
	msg := "docsync fp:" + fingerprint
	if commit != "" {
		msg += " commit:" + commit
	}
	return msg
}

var _ SyncService = (*DefaultSyncService)(nil)
