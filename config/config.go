// Package config loads sofetch client defaults from a configuration file
// (YAML, JSON or TOML via viper) and can keep a client in sync with the
// file: every change triggers a wholesale Client.Configure, so file edits
// behave exactly like programmatic reconfiguration (old hooks and defaults
// are dropped, in-flight requests finish on the old snapshot).
package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/danbahrami/sofetch"
)

// File is the on-disk shape of a client configuration.
type File struct {
	BaseURL           string            `mapstructure:"base_url"`
	UserAgent         string            `mapstructure:"user_agent"`
	MaxErrorBodyBytes int64             `mapstructure:"max_error_body_bytes"`
	RequestIDHeader   string            `mapstructure:"request_id_header"`
	Headers           map[string]string `mapstructure:"headers"`
	Methods           map[string]Method `mapstructure:"methods"`
}

// Method holds the defaults of one per-verb slot (or the special "common"
// and "request" slots).
type Method struct {
	Headers map[string]string `mapstructure:"headers"`
}

// Options converts the file into client options. The "common" and "request"
// keys of Methods map to the corresponding slots; any other key must be one
// of the seven verbs.
func (f File) Options() ([]sofetch.ClientOption, error) {
	opts := []sofetch.ClientOption{
		sofetch.WithBaseURL(f.BaseURL),
		sofetch.WithUserAgent(f.UserAgent),
		sofetch.WithMaxErrorBodyBytes(f.MaxErrorBodyBytes),
	}
	if f.RequestIDHeader != "" {
		opts = append(opts, sofetch.WithRequestID(sofetch.RequestIDConfig{Header: f.RequestIDHeader}))
	}

	common := sofetch.Options{Header: sofetch.HeaderFromMap(f.Headers)}
	for name, m := range f.Methods {
		src := sofetch.Value(sofetch.Options{Header: sofetch.HeaderFromMap(m.Headers)})
		switch strings.ToLower(name) {
		case "common":
			// Merged with the top-level headers; the method table wins.
			common.Header = sofetch.MergeHeaders(common.Header, sofetch.HeaderFromMap(m.Headers))
		case "request":
			opts = append(opts, sofetch.WithRequestDefaults(src))
		case "get", "post", "put", "patch", "delete", "options", "head":
			opts = append(opts, sofetch.WithMethodDefaults(strings.ToUpper(name), src))
		default:
			return nil, fmt.Errorf("config: unknown method slot %q", name)
		}
	}
	if common.Header != nil {
		opts = append(opts, sofetch.WithCommonDefaults(sofetch.Value(common)))
	}
	return opts, nil
}

// Loader reads a client configuration file and optionally watches it.
type Loader struct {
	v  *viper.Viper
	mu sync.Mutex

	current File

	// onError receives background reload failures (parse errors, rejected
	// configurations). A failed reload keeps the previous configuration.
	onError func(error)
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithErrorHandler installs a callback for background reload failures.
func WithErrorHandler(fn func(error)) LoaderOption {
	return func(l *Loader) { l.onError = fn }
}

// Load reads the file at path and returns a Loader holding its contents.
func Load(path string, opts ...LoaderOption) (*Loader, error) {
	v := viper.New()
	v.SetConfigFile(path)

	l := &Loader{v: v}
	for _, o := range opts {
		o(l)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	l.current = f
	return l, nil
}

// File returns the most recently loaded file contents.
func (l *Loader) File() File {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// NewClient builds a sofetch client from the loaded configuration. Extra
// options apply after the file's, so code can override the file.
func (l *Loader) NewClient(extra ...sofetch.ClientOption) (*sofetch.Client, error) {
	opts, err := l.File().Options()
	if err != nil {
		return nil, err
	}
	return sofetch.New(append(opts, extra...)...)
}

// Apply reconfigures client from the loaded file plus extra options.
func (l *Loader) Apply(client *sofetch.Client, extra ...sofetch.ClientOption) error {
	opts, err := l.File().Options()
	if err != nil {
		return err
	}
	return client.Configure(append(opts, extra...)...)
}

// Watch keeps client in sync with the file until the process exits. File
// system events are debounced because editors often fire several per save.
func (l *Loader) Watch(client *sofetch.Client, extra ...sofetch.ClientOption) {
	var (
		debounceMu    sync.Mutex
		debounceTimer *time.Timer
	)

	l.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
			l.reload(client, extra)
		})
		debounceMu.Unlock()
	})

	l.v.WatchConfig()
}

func (l *Loader) reload(client *sofetch.Client, extra []sofetch.ClientOption) {
	l.mu.Lock()
	old := l.current

	if err := l.v.ReadInConfig(); err != nil {
		l.mu.Unlock()
		l.reportError(fmt.Errorf("config: reload: %w", err))
		return
	}
	var f File
	if err := l.v.Unmarshal(&f); err != nil {
		l.mu.Unlock()
		l.reportError(fmt.Errorf("config: reload: %w", err))
		return
	}
	l.current = f
	l.mu.Unlock()

	if reflect.DeepEqual(old, f) {
		return
	}

	opts, err := f.Options()
	if err != nil {
		l.reportError(err)
		return
	}
	if err := client.Configure(append(opts, extra...)...); err != nil {
		l.reportError(fmt.Errorf("config: configure: %w", err))
	}
}

func (l *Loader) reportError(err error) {
	if l.onError != nil {
		l.onError(err)
	}
}
