package model

import (
	"context"
	"io"
	"log/slog"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

const (
	DefaultServerURL    = "http://localhost:3000"
	DefaultFormURL      = "/config/plugins"
	DefaultPollInterval = time.Second
	DefaultTimeout      = 30 * time.Second

	TaskCleanTempFolder  = "tempfolder.clean"
	TaskInvalidateCache  = "search.cache.invalidate"
	TaskCleanDatabase    = "database.clean"
	TaskClearNewFlags    = "database.isnew.clear"
	TaskRegenerateThumbs = "thumbnails.regen"
	TaskScriptPrefix     = "script:"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

type Config struct {
	Version  int        `json:"version" yaml:"version"` // fixed 0 for now
	Server   Server     `json:"server" yaml:"server"`
	Poll     *Poll      `json:"poll,omitempty" yaml:"poll,omitempty"`
	Form     *Form      `json:"form,omitempty" yaml:"form,omitempty"`
	Verbose  *bool      `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	Journal  *Journal   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Schedule []Schedule `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// Server the client talks to.
type Server struct {
	URL     string `json:"url" yaml:"url"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // 1d2h3m4s
}

type Poll struct {
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// Form is the plugin configuration page saved before a script is queued.
type Form struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

type Journal struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Schedule runs Task periodically, either by Cron or each Duration.
type Schedule struct {
	Name     string `json:"name" yaml:"name"`
	Task     string `json:"task" yaml:"task"`
	Arg      string `json:"arg,omitempty" yaml:"arg,omitempty"`
	Cron     string `json:"cron,omitempty" yaml:"cron,omitempty"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

func DefaultConfig(ctx context.Context) Config {
	cfg := Config{
		Version: 0,
		Server: Server{
			URL:     DefaultServerURL,
			Timeout: "30s",
		},
		Poll: &Poll{Interval: "1s"},
		Form: &Form{URL: DefaultFormURL},
	}
	slog.DebugContext(ctx, "using default configuration")
	return cfg
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("config.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),
		cue.Concrete(true),
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}
	return out, nil
}

func (c Config) IsVerbose() bool {
	return get(c.Verbose)
}

// PollInterval returns the fixed delay between two polls of a job.
func (c Config) PollInterval() time.Duration {
	if c.Poll == nil || c.Poll.Interval == "" {
		return DefaultPollInterval
	}
	d, err := ParseDuration(c.Poll.Interval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

func (c Config) Timeout() time.Duration {
	if c.Server.Timeout == "" {
		return DefaultTimeout
	}
	d, err := ParseDuration(c.Server.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

func (c Config) FormURL() string {
	if c.Form == nil || c.Form.URL == "" {
		return DefaultFormURL
	}
	return c.Form.URL
}

func (c Config) JournalEnabled() bool {
	return c.Journal != nil && get(c.Journal.Enabled)
}

func get[T any](pt *T) T {
	var zero T
	if pt == nil {
		return zero
	}
	return *pt
}
