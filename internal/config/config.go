package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// DefaultConfigFile is read when no --config flag is given.
const DefaultConfigFile = "docsync.yaml"

// DefaultProjectFile is the mkdocs project synced when none is configured.
const DefaultProjectFile = "mkdocs.yml"

// Settings is the docsync configuration file.
type Settings struct {
	// Enabled defaults to true when absent.
	Enabled    *bool            `yaml:"enabled,omitempty"`
	Project    string           `yaml:"project,omitempty"`
	Confluence ConfluenceConfig `yaml:"confluence"`
	Notify     NotifyConfig     `yaml:"notify,omitempty"`
	Watch      WatchConfig      `yaml:"watch,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
	Render     RenderConfig     `yaml:"render,omitempty"`
}

// ConfluenceConfig holds the wiki endpoint and credentials. Each value may
// also come from the environment.
type ConfluenceConfig struct {
	Host       string `yaml:"host,omitempty"`
	Space      string `yaml:"space,omitempty"`
	ParentPage string `yaml:"parent_page,omitempty"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
}

// NotifyConfig enables page-synced events on NATS when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig tunes `docsync watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
	Every    string `yaml:"every,omitempty"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// RenderConfig tunes markdown rendering. Raw HTML in documents is escaped
// unless RawHTML is set.
type RenderConfig struct {
	RawHTML bool `yaml:"raw_html,omitempty"`
}

// Load reads the configuration at configPath. Environment files are loaded
// first and `${VAR}` references in the file are expanded. A missing file is
// not an error: the returned Settings are empty and everything comes from
// the environment.
func Load(configPath string) (*Settings, error) {
	loadEnvFiles()

	var s Settings
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		slog.Debug("No configuration file, using environment only", logfields.Path(configPath))
		return &s, nil
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Fatal().Build()
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &s); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			WithContext("path", configPath).Fatal().Build()
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	durations := map[string]string{
		"confluence.timeout": s.Confluence.Timeout,
		"watch.debounce":     s.Watch.Debounce,
		"watch.every":        s.Watch.Every,
	}
	for field, v := range durations {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return errors.ValidationError("invalid duration").
				WithCause(err).
				WithContext("field", field).
				WithContext("value", v).
				Build()
		}
	}
	return nil
}

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	enabled := true
	example := Settings{
		Enabled: &enabled,
		Project: DefaultProjectFile,
		Confluence: ConfluenceConfig{
			Host:       "https://example.atlassian.net/wiki/",
			Space:      "DOCS",
			ParentPage: "Engineering Docs",
			Username:   "bot@example.com",
			Password:   "${CONFLUENCE_TOKEN}",
		},
		Notify: NotifyConfig{
			NATSURL: "nats://localhost:4222",
			Subject: "docsync.pages",
		},
		Watch: WatchConfig{Debounce: "2s"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
