// Package config loads the server configuration from the environment, an
// optional .env file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"persona-panel/content"
	"persona-panel/store"
	"persona-panel/worldinfo"
)

// Config is the full server configuration.
type Config struct {
	Addr      string
	StaticDir string
	DataDir   string
	RedisURL  string
	Ephemeral bool

	HostURL   string
	HostToken string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	Debounce     time.Duration
	PollInterval time.Duration
	Lang         string
	Keyring      bool
	LogLevel     string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:         ":8080",
		DataDir:      "./data",
		Debounce:     store.DefaultDebounce,
		PollInterval: worldinfo.DefaultPollInterval,
		Lang:         content.DefaultLang,
		LogLevel:     "info",
	}
}

// Load reads envFiles (missing files are skipped) into the environment
// without overriding variables already set, then builds a Config from it.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Defaults()
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	var port string
	str(&port, "PORT")
	if port != "" {
		c.Addr = ":" + port
	}
	str(&c.Addr, "PERSONA_ADDR")
	str(&c.StaticDir, "PERSONA_STATIC_DIR")
	str(&c.DataDir, "PERSONA_DATA_DIR")
	str(&c.RedisURL, "PERSONA_REDIS_URL")
	str(&c.HostURL, "PERSONA_HOST_URL")
	str(&c.HostToken, "PERSONA_HOST_TOKEN")
	str(&c.GeminiAPIKey, "PERSONA_GEMINI_API_KEY", "GEMINI_API_KEY")
	str(&c.GeminiModel, "PERSONA_GEMINI_MODEL")
	str(&c.GeminiBaseURL, "PERSONA_GEMINI_BASE_URL")
	str(&c.Lang, "PERSONA_LANG")
	str(&c.LogLevel, "PERSONA_LOG_LEVEL")

	var errs []error
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
				return
			}
			*dst = d
		}
	}
	boolean := func(dst *bool, key string) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid bool %q", key, v))
				return
			}
			*dst = b
		}
	}
	dur(&c.Debounce, "PERSONA_DEBOUNCE")
	dur(&c.PollInterval, "PERSONA_POLL_INTERVAL")
	boolean(&c.Keyring, "PERSONA_KEYRING")
	boolean(&c.Ephemeral, "PERSONA_EPHEMERAL")

	c.Lang = strings.ToLower(c.Lang)
	return c, errors.Join(errs...)
}

// RegisterFlags adds the flags ApplyFlags reads.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("addr", d.Addr, "listen address")
	fs.String("static", "", "directory with the panel frontend (index.html, css/, js/)")
	fs.String("data", d.DataDir, "data directory for the file store")
	fs.String("redis", "", "redis URL; stores state in redis instead of files")
	fs.Bool("ephemeral", false, "keep state in memory only")
	fs.String("host-url", "", "base URL of the host application's extension API")
	fs.String("lang", d.Lang, "notification language (en, zh)")
	fs.Duration("debounce", d.Debounce, "quiet period before saves are written")
	fs.Duration("poll-interval", d.PollInterval, "world book list refresh interval")
	fs.Bool("keyring", false, "keep the independent API key in the OS keyring")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
}

// ApplyFlags overrides c with every flag set explicitly on fs.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) {
	if fs.Changed("addr") {
		c.Addr, _ = fs.GetString("addr")
	}
	if fs.Changed("static") {
		c.StaticDir, _ = fs.GetString("static")
	}
	if fs.Changed("data") {
		c.DataDir, _ = fs.GetString("data")
	}
	if fs.Changed("redis") {
		c.RedisURL, _ = fs.GetString("redis")
	}
	if fs.Changed("ephemeral") {
		c.Ephemeral, _ = fs.GetBool("ephemeral")
	}
	if fs.Changed("host-url") {
		c.HostURL, _ = fs.GetString("host-url")
	}
	if fs.Changed("lang") {
		c.Lang, _ = fs.GetString("lang")
	}
	if fs.Changed("debounce") {
		c.Debounce, _ = fs.GetDuration("debounce")
	}
	if fs.Changed("poll-interval") {
		c.PollInterval, _ = fs.GetDuration("poll-interval")
	}
	if fs.Changed("keyring") {
		c.Keyring, _ = fs.GetBool("keyring")
	}
	if fs.Changed("log-level") {
		c.LogLevel, _ = fs.GetString("log-level")
	}
}
