package xshmem

import (
	"os"

	"github.com/srediag/xshmem/adapter"
	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/logger"
)

// Selector resolves library identifiers to handles.
type Selector struct {
	registry  *adapter.Registry
	envVar    string
	lookupEnv func(string) (string, bool)
	logger    *logger.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithRegistry resolves libraries from r instead of adapter.Default.
func WithRegistry(r *adapter.Registry) Option {
	return func(s *Selector) { s.registry = r }
}

// WithEnvVar reads the library name from name instead of SHMEM_LIBRARY.
func WithEnvVar(name string) Option {
	return func(s *Selector) { s.envVar = name }
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(s *Selector) { s.lookupEnv = fn }
}

// WithLogger sets the logger used for selection notices.
func WithLogger(l *logger.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// NewSelector returns a selector over adapter.Default unless configured otherwise.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		registry:  adapter.Default,
		envVar:    api.EnvLibrary,
		lookupEnv: os.LookupEnv,
		logger:    logger.New("xshmem", os.Stdout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create returns a handle for lib.
func (s *Selector) Create(lib api.Library) (api.OpenSHMEM, error) {
	return s.create(lib)
}

// CreateByName returns a handle for the library spelled name.
func (s *Selector) CreateByName(name string) (api.OpenSHMEM, error) {
	lib, err := api.ParseLibrary(name)
	if err != nil {
		return nil, err
	}
	return s.create(lib)
}

// CreateFromEnv returns a handle for the library named by the selector's
// environment variable, falling back to api.DefaultLibrary when it is unset.
func (s *Selector) CreateFromEnv() (api.OpenSHMEM, error) {
	return s.Open(nil)
}

// Open returns a handle for cfg.Library when set, otherwise for the
// environment variable, otherwise for api.DefaultLibrary. A nil cfg
// behaves like an empty one.
func (s *Selector) Open(cfg *Config) (api.OpenSHMEM, error) {
	lib, err := s.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return s.create(lib)
}

// Resolve applies the selection rule of Open without constructing a handle.
func (s *Selector) Resolve(cfg *Config) (api.Library, error) {
	if cfg != nil && cfg.Library != "" {
		return api.ParseLibrary(cfg.Library)
	}
	envVar := s.envVar
	if cfg != nil && cfg.EnvVar != "" {
		envVar = cfg.EnvVar
	}
	name, ok := s.lookupEnv(envVar)
	if !ok || name == "" {
		s.logger.Infof("%s env var unset, picking %s.", envVar, api.DefaultLibrary)
		return api.DefaultLibrary, nil
	}
	return api.ParseLibrary(name)
}

// Enabled lists the libraries this selector can create.
func (s *Selector) Enabled() []api.Library {
	return s.registry.Enabled()
}

func (s *Selector) create(lib api.Library) (api.OpenSHMEM, error) {
	ctor, ok := s.registry.Lookup(lib)
	if !ok {
		return nil, &api.UnsupportedLibraryError{Name: lib.String()}
	}
	s.logger.Debugf("selected %s", lib)
	return ctor(), nil
}

var defaultSelector = NewSelector()

// New returns a handle for lib from the adapters compiled into the binary.
func New(lib api.Library) (api.OpenSHMEM, error) {
	return defaultSelector.Create(lib)
}

// NewByName returns a handle for the library spelled name.
func NewByName(name string) (api.OpenSHMEM, error) {
	return defaultSelector.CreateByName(name)
}

// NewFromEnv returns a handle for the library named by SHMEM_LIBRARY, or for
// SHMEM when it is unset.
func NewFromEnv() (api.OpenSHMEM, error) {
	return defaultSelector.CreateFromEnv()
}
