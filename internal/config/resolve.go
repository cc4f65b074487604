package config

import (
	"log/slog"
	"os"
	"time"
)

// DefaultDebounce delays a watch-triggered sync after the last change.
const DefaultDebounce = 2 * time.Second

// DefaultSubject is the NATS subject page events are published on.
const DefaultSubject = "docsync.pages"

// Resolved is a complete, enabled configuration.
type Resolved struct {
	Project    string
	Host       string
	Space      string
	ParentPage string
	Username   string
	Password   string
	Timeout    time.Duration

	NATSURL string
	Subject string

	Debounce    time.Duration
	Every       time.Duration
	MetricsFile string

	RawHTML bool
}

// IsEnabled reports whether syncing is switched on by the file and by the
// ENABLED environment variable.
func (s *Settings) IsEnabled() bool {
	if s.Enabled != nil && !*s.Enabled {
		return false
	}
	return os.Getenv(EnvEnabled) != "0"
}

// Resolve merges file values with their environment fallbacks. It returns
// false when syncing is disabled or a required value is missing; that is
// logged at info level and is not an error.
func (s *Settings) Resolve() (Resolved, bool) {
	if !s.IsEnabled() {
		slog.Info("Sync is disabled")
		return Resolved{}, false
	}

	r := Resolved{
		Project:     s.Project,
		Host:        firstNonEmpty(s.Confluence.Host, EnvHost),
		Space:       firstNonEmpty(s.Confluence.Space, EnvSpace),
		Username:    firstNonEmpty(s.Confluence.Username, EnvUsername),
		Password:    firstNonEmpty(s.Confluence.Password, EnvPassword),
		ParentPage:  firstNonEmpty(s.Confluence.ParentPage, EnvParentPage),
		NATSURL:     s.Notify.NATSURL,
		Subject:     s.Notify.Subject,
		Debounce:    DefaultDebounce,
		MetricsFile: s.Metrics.File,
		RawHTML:     s.Render.RawHTML,
	}
	required := []struct {
		field, value string
	}{
		{"host", r.Host},
		{"space", r.Space},
		{"username", r.Username},
		{"password", r.Password},
	}
	for _, req := range required {
		if req.value == "" {
			slog.Info("Confluence "+req.field+" is required, disabling sync", slog.String("missing", req.field))
			return Resolved{}, false
		}
	}

	if r.Project == "" {
		r.Project = DefaultProjectFile
	}
	if r.Subject == "" {
		r.Subject = DefaultSubject
	}
	// Durations were checked by Load.
	if d, err := time.ParseDuration(s.Confluence.Timeout); err == nil {
		r.Timeout = d
	}
	if d, err := time.ParseDuration(s.Watch.Debounce); err == nil {
		r.Debounce = d
	}
	if d, err := time.ParseDuration(s.Watch.Every); err == nil {
		r.Every = d
	}
	return r, true
}
