package publish

import (
	"context"

	"git.home.luguber.info/inful/docsync/internal/confluence"
	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/observability"
	"git.home.luguber.info/inful/docsync/internal/tree"
)

// Target names where pages go.
type Target struct {
	SpaceKey string
	// ParentTitle, when set, is an existing page every top-level page is
	// placed under.
	ParentTitle string
}

// PageEvent describes one page write.
type PageEvent struct {
	Action   metrics.PageAction
	Page     *tree.Page
	ParentID string
}

// Synchronizer creates or updates every page of a tree.
type Synchronizer struct {
	api      API
	recorder metrics.Recorder
	message  func(*tree.Page) string
	onWrite  func(context.Context, PageEvent)

	spaceID      string
	rootParentID string
}

// NewSynchronizer returns a Synchronizer using api.
func NewSynchronizer(api API) *Synchronizer {
	return &Synchronizer{api: api, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (s *Synchronizer) WithRecorder(rec metrics.Recorder) *Synchronizer {
	if rec != nil {
		s.recorder = rec
	}
	return s
}

// WithVersionMessage sets a function producing the version message sent
// with page updates.
func (s *Synchronizer) WithVersionMessage(fn func(*tree.Page) string) *Synchronizer {
	s.message = fn
	return s
}

// OnWrite registers a callback run after each successful page write.
func (s *Synchronizer) OnWrite(fn func(context.Context, PageEvent)) *Synchronizer {
	s.onWrite = fn
	return s
}

// SpaceID is the resolved space id, set by Prepare.
func (s *Synchronizer) SpaceID() string { return s.spaceID }

// Prepare resolves the space and the optional root parent page. Both must
// exist.
func (s *Synchronizer) Prepare(ctx context.Context, target Target) error {
	id, err := s.api.SpaceID(ctx, target.SpaceKey)
	if err != nil {
		return err
	}
	s.spaceID = id
	observability.InfoContext(ctx, "Resolved space", logfields.Space(target.SpaceKey), logfields.RemoteID(id))

	if target.ParentTitle == "" {
		return nil
	}
	ref, found, err := s.api.FindPage(ctx, id, target.ParentTitle)
	if err != nil {
		return err
	}
	if !found {
		return errors.NotFoundError("root parent page not found").
			WithContext("space", target.SpaceKey).
			WithContext("title", target.ParentTitle).
			Build()
	}
	s.rootParentID = ref.ID
	observability.InfoContext(ctx, "Resolved root parent page", logfields.Page(target.ParentTitle), logfields.RemoteID(ref.ID))
	return nil
}

// Lookup records the id and version of every page that already exists
// under its display name. Prepare must have run.
func (s *Synchronizer) Lookup(ctx context.Context, pages []*tree.Page) error {
	for _, p := range pages {
		ref, found, err := s.api.FindPage(ctx, s.spaceID, p.DisplayName)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		p.RemoteID = ref.ID
		p.RemoteVersion = ref.Version.Number
		p.HasVersion = true
		observability.DebugContext(ctx, "Found existing page",
			logfields.Page(p.DisplayName), logfields.RemoteID(ref.ID), logfields.Version(ref.Version.Number))
	}
	return nil
}

// ParentID returns the remote id p is placed under.
func (s *Synchronizer) ParentID(pages []*tree.Page, p *tree.Page) string {
	if parent := tree.ParentOf(pages, p); parent != nil {
		return parent.RemoteID
	}
	return s.rootParentID
}

// Write creates pages without a remote id and updates the others, in
// order. Pages must be in pre-order so each parent has its id before its
// children are written. The first failure aborts.
func (s *Synchronizer) Write(ctx context.Context, pages []*tree.Page) error {
	for _, p := range pages {
		in := confluence.PageInput{
			Title:    p.DisplayName,
			ParentID: s.ParentID(pages, p),
			Body:     p.Markup,
		}
		var action metrics.PageAction
		if p.RemoteID == "" {
			id, err := s.api.CreatePage(ctx, s.spaceID, in)
			if err != nil {
				return withPage(err, p)
			}
			p.RemoteID = id
			action = metrics.PageCreated
			observability.InfoContext(ctx, "Created page",
				logfields.Page(p.DisplayName), logfields.RemoteID(id), logfields.ParentID(in.ParentID))
		} else {
			v := confluence.Version{Number: p.RemoteVersion + 1}
			if s.message != nil {
				v.Message = s.message(p)
			}
			if err := s.api.UpdatePage(ctx, p.RemoteID, v, in); err != nil {
				return withPage(err, p)
			}
			p.RemoteVersion = v.Number
			action = metrics.PageUpdated
			observability.InfoContext(ctx, "Updated page",
				logfields.Page(p.DisplayName), logfields.RemoteID(p.RemoteID), logfields.Version(v.Number))
		}
		s.recorder.IncPage(action)
		if s.onWrite != nil {
			s.onWrite(ctx, PageEvent{Action: action, Page: p, ParentID: in.ParentID})
		}
	}
	return nil
}

// Sync runs Prepare, Lookup and Write.
func (s *Synchronizer) Sync(ctx context.Context, target Target, pages []*tree.Page) error {
	if err := s.Prepare(ctx, target); err != nil {
		return err
	}
	if err := s.Lookup(ctx, pages); err != nil {
		return err
	}
	return s.Write(ctx, pages)
}

func withPage(err error, p *tree.Page) error {
	if ce, ok := errors.AsClassified(err); ok {
		return errors.WrapError(ce, ce.Category(), "write page").
			WithSeverity(ce.Severity()).
			WithContextMap(ce.Context()).
			WithContext("page", p.DisplayName).
			Build()
	}
	return errors.RemoteError("write page").WithCause(err).WithContext("page", p.DisplayName).Build()
}
