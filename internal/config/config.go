package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/topicview/internal/config/loader"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/logging"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TOPICVIEW_"

// FileName is the name of the configuration file.
const FileName = "config.toml"

// Duration is a time.Duration written as "250ms" or "5s" in TOML. A bare
// integer is read as milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete configuration.
type Config struct {
	Server    Server    `toml:"server"`
	View      View      `toml:"view"`
	Log       Log       `toml:"log"`
	Hooks     Hooks     `toml:"hooks"`
	Transport Transport `toml:"transport"`
}

// Server locates the forum.
type Server struct {
	// URL is the websocket endpoint.
	URL string `toml:"url"`
	// Scheme and Host form the page location; they default to the URL's.
	Scheme string `toml:"scheme"`
	Host   string `toml:"host"`
	// RelativePath is the forum mount point, such as "/forum".
	RelativePath string `toml:"relative_path"`
	// Cookie is sent with the websocket handshake.
	Cookie string `toml:"cookie"`
}

// View controls rendering.
type View struct {
	Language  string   `toml:"language"`
	Fade      Duration `toml:"fade"`
	PurgeFade Duration `toml:"purge_fade"`
	// Templates is a directory of template overrides.
	Templates string `toml:"templates"`
}

// Log controls logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Hooks lists the Lua hook scripts.
type Hooks struct {
	Scripts []string `toml:"scripts"`
	Timeout Duration `toml:"timeout"`
}

// Transport holds websocket timings.
type Transport struct {
	Reconnect    Duration `toml:"reconnect"`
	Handshake    Duration `toml:"handshake"`
	WriteTimeout Duration `toml:"write_timeout"`
	ReadTimeout  Duration `toml:"read_timeout"`
	PingInterval Duration `toml:"ping_interval"`
	SendBuffer   int      `toml:"send_buffer"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		View: View{
			Language:  i18n.DefaultLanguage.String(),
			Fade:      Duration(250 * time.Millisecond),
			PurgeFade: Duration(500 * time.Millisecond),
		},
		Log: Log{Level: "info", Format: "text"},
		Hooks: Hooks{
			Timeout: Duration(2 * time.Second),
		},
		Transport: Transport{
			Reconnect:    Duration(5 * time.Second),
			Handshake:    Duration(5 * time.Second),
			WriteTimeout: Duration(5 * time.Second),
			ReadTimeout:  Duration(60 * time.Second),
			PingInterval: Duration(25 * time.Second),
			SendBuffer:   64,
		},
	}
}

// Options select the sources Load reads.
type Options struct {
	// Path is the TOML file. Empty means DefaultPath. A missing file is
	// not an error.
	Path string
	// FS reads the file. Nil means the OS file system.
	FS loader.FileSystem
	// SkipEnv disables TOPICVIEW_* overrides.
	SkipEnv bool
	// Overrides is the flag layer, keyed like the file.
	Overrides map[string]any
}

// DefaultPath returns the per-user configuration file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "topicview", FileName)
}

// Load merges every layer over the defaults and validates the result.
func Load(opts Options) (Config, error) {
	path := opts.Path
	if path == "" {
		path = DefaultPath()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	file, err := loader.NewTOMLLoaderWithFS(fsys, path).LoadWithIncludes(path, loader.MaxIncludeDepth)
	if err != nil {
		return Config{}, err
	}
	merged := loader.Clone(file)
	if !opts.SkipEnv {
		env, err := loader.NewEnvLoader(EnvPrefix).Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, env)
	}
	merged = loader.DeepMerge(merged, opts.Overrides)

	cfg, err := Decode(merged)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode applies a settings map over the defaults.
func Decode(settings map[string]any) (Config, error) {
	cfg := Default()
	if len(settings) == 0 {
		return cfg, nil
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return Config{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &loader.ParseError{Path: "<merged>", Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var problems []string
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			problems = append(problems, fmt.Sprintf("server.url %q is not a ws:// or wss:// URL", c.Server.URL))
		}
	}
	if p := c.Server.RelativePath; p != "" && (!strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/")) {
		problems = append(problems, fmt.Sprintf("server.relative_path %q must start and not end with /", p))
	}
	if _, err := i18n.New(c.View.Language); err != nil {
		problems = append(problems, fmt.Sprintf("view.language: %v", err))
	}
	if c.View.Fade < 0 || c.View.PurgeFade < 0 {
		problems = append(problems, "view fades must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is unknown", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Transport.PingInterval <= 0 || c.Transport.ReadTimeout <= c.Transport.PingInterval {
		problems = append(problems, "transport.read_timeout must exceed a positive ping_interval")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// LogConfig returns the logging configuration.
func (c Config) LogConfig() logging.Config {
	return logging.Config{
		Level:  logging.ParseLevel(c.Log.Level),
		Format: c.Log.Format,
	}
}

// PageOrigin returns the scheme and host of the page, derived from the
// websocket URL when not set.
func (c Config) PageOrigin() (scheme, host string) {
	scheme, host = c.Server.Scheme, c.Server.Host
	if u, err := url.Parse(c.Server.URL); err == nil {
		if scheme == "" {
			scheme = "https"
			if u.Scheme == "ws" {
				scheme = "http"
			}
		}
		if host == "" {
			host = u.Host
		}
	}
	return scheme, host
}
