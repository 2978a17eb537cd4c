// Package models is the catalog of analysis backends plus the user's
// selection, credentials and endpoint overrides.
//
// A Registry is constructed explicitly and passed to whoever needs it.
// With a store attached, every mutation is written back under ConfigKey;
// Load restores it at startup and falls back to defaults on any error.
package models

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/randalmurphal/flowlens/pkg/flowlens/errors"
	"github.com/randalmurphal/flowlens/pkg/flowlens/observability"
	"github.com/randalmurphal/flowlens/pkg/flowlens/registry"
	"github.com/randalmurphal/flowlens/pkg/flowlens/store"
)

// ConfigKey is the store key of the persisted registry state.
const ConfigKey = "copilot-models-config"

// Sentinel errors.
var (
	// ErrModelNotFound indicates an unknown model id.
	ErrModelNotFound = stderrors.New("model not found")

	// ErrBuiltinModel indicates an attempt to replace or remove a
	// catalog model.
	ErrBuiltinModel = stderrors.New("built-in model cannot be modified")
)

// Default custom model presentation.
const (
	CustomIcon    = "🔧"
	CustomFeature = "code-analysis"
)

// State is the persisted part of the registry.
type State struct {
	CurrentModel    string              `json:"currentModel"`
	APIKeys         map[Provider]string `json:"apiKeys"`
	CustomEndpoints map[string]string   `json:"customEndpoints"`
	CustomModels    []Descriptor        `json:"customModels,omitempty"`
}

// Registry holds the model catalog and the user's choices.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	models    *registry.Registry[string, Descriptor]
	builtin   map[string]bool
	current   string
	apiKeys   map[Provider]string
	endpoints map[string]string

	store        store.Store
	logger       *slog.Logger
	httpClient   *http.Client
	probeTimeout time.Duration
	getenv       func(string) string

	revision atomic.Uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore persists state to s.
func WithStore(s store.Store) Option {
	return func(r *Registry) { r.store = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHTTPClient sets the client used for reachability probes.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Registry) { r.httpClient = hc }
}

// WithProbeTimeout bounds each reachability probe. Default 5s.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.probeTimeout = d
		}
	}
}

// WithEnv replaces os.Getenv for credential fallback.
func WithEnv(getenv func(string) string) Option {
	return func(r *Registry) { r.getenv = getenv }
}

// New creates a registry seeded with Catalog and DefaultModelID selected.
func New(opts ...Option) *Registry {
	r := &Registry{
		models:       registry.New[string, Descriptor](),
		builtin:      make(map[string]bool),
		current:      DefaultModelID,
		apiKeys:      make(map[Provider]string),
		endpoints:    make(map[string]string),
		logger:       slog.Default(),
		httpClient:   http.DefaultClient,
		probeTimeout: 5 * time.Second,
		getenv:       os.Getenv,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, d := range Catalog() {
		r.models.Register(d.ID, d)
		r.builtin[d.ID] = true
	}
	return r
}

// AllModels returns every model in catalog order, custom models last.
func (r *Registry) AllModels() []Descriptor {
	out := r.models.Values()
	for i := range out {
		out[i] = out[i].clone()
	}
	return out
}

// Model returns the descriptor for id.
func (r *Registry) Model(id string) (Descriptor, bool) {
	d, ok := r.models.Get(id)
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// IsBuiltin reports whether id belongs to the shipped catalog.
func (r *Registry) IsBuiltin(id string) bool {
	return r.builtin[id]
}

// CurrentModelID returns the selected model id.
func (r *Registry) CurrentModelID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// CurrentModel returns the selected descriptor. If the selection has
// vanished the builtin analyzer is returned.
func (r *Registry) CurrentModel() Descriptor {
	if d, ok := r.Model(r.CurrentModelID()); ok {
		return d
	}
	d, _ := r.Model(DefaultModelID)
	return d
}

// SetCurrentModel selects id. Unknown ids return false and leave the
// selection unchanged.
func (r *Registry) SetCurrentModel(id string) bool {
	if !r.models.Has(id) {
		return false
	}
	r.mu.Lock()
	r.current = id
	r.mu.Unlock()
	r.changed()
	return true
}

// ModelsByProvider returns the models served by p.
func (r *Registry) ModelsByProvider(p Provider) []Descriptor {
	out := r.models.Filter(func(d Descriptor) bool { return d.Provider == p })
	for i := range out {
		out[i] = out[i].clone()
	}
	return out
}

// APIKey returns the stored credential for p, then the environment
// variable p.EnvKey(). Empty means none.
func (r *Registry) APIKey(p Provider) string {
	r.mu.RLock()
	key := r.apiKeys[p]
	r.mu.RUnlock()
	if key != "" {
		return key
	}
	return r.getenv(p.EnvKey())
}

// HasAPIKey reports whether a credential is available for p.
func (r *Registry) HasAPIKey(p Provider) bool {
	return r.APIKey(p) != ""
}

// SetAPIKey stores a credential for p.
func (r *Registry) SetAPIKey(p Provider, key string) error {
	if !p.Valid() || p == ProviderBuiltin {
		return &errors.ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", p)}
	}
	if strings.TrimSpace(key) == "" {
		return &errors.ValidationError{Field: "apiKey", Message: "must not be empty"}
	}
	r.mu.Lock()
	r.apiKeys[p] = key
	r.mu.Unlock()
	r.changed()
	return nil
}

// RemoveAPIKey forgets the stored credential for p. An environment
// credential still applies afterwards.
func (r *Registry) RemoveAPIKey(p Provider) {
	r.mu.Lock()
	delete(r.apiKeys, p)
	r.mu.Unlock()
	r.changed()
}

// Endpoint returns the override for id, or the model's own endpoint.
func (r *Registry) Endpoint(id string) string {
	r.mu.RLock()
	override := r.endpoints[id]
	r.mu.RUnlock()
	if override != "" {
		return override
	}
	d, _ := r.models.Get(id)
	return d.Endpoint
}

// SetEndpoint overrides the endpoint of id. An empty url clears it.
func (r *Registry) SetEndpoint(id, url string) error {
	if !r.models.Has(id) {
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	if url != "" {
		if err := validate.Var(url, "url"); err != nil {
			return &errors.ValidationError{Field: "endpoint", Message: fmt.Sprintf("invalid url %q", url)}
		}
	}
	r.mu.Lock()
	if url == "" {
		delete(r.endpoints, id)
	} else {
		r.endpoints[id] = url
	}
	r.mu.Unlock()
	r.changed()
	return nil
}

// AddCustomModel registers d after validating it. Missing icon and
// features get the custom defaults. Built-in ids cannot be replaced;
// an existing custom model with the same id is overwritten.
func (r *Registry) AddCustomModel(d Descriptor) error {
	if err := validateDescriptor(d); err != nil {
		return err
	}
	if r.builtin[d.ID] {
		return fmt.Errorf("%w: %s", ErrBuiltinModel, d.ID)
	}
	d = d.clone()
	d.Custom = true
	if d.Icon == "" {
		d.Icon = CustomIcon
	}
	if len(d.Features) == 0 {
		d.Features = []string{CustomFeature}
	}
	r.models.Register(d.ID, d)
	r.changed()
	return nil
}

// RemoveCustomModel deletes a custom model. Removing the selected model
// resets the selection to DefaultModelID.
func (r *Registry) RemoveCustomModel(id string) error {
	if r.builtin[id] {
		return fmt.Errorf("%w: %s", ErrBuiltinModel, id)
	}
	if !r.models.Delete(id) {
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	r.mu.Lock()
	delete(r.endpoints, id)
	if r.current == id {
		r.current = DefaultModelID
	}
	r.mu.Unlock()
	r.changed()
	return nil
}

// State returns a copy of the persisted state.
func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := State{
		CurrentModel:    r.current,
		APIKeys:         make(map[Provider]string, len(r.apiKeys)),
		CustomEndpoints: make(map[string]string, len(r.endpoints)),
	}
	for k, v := range r.apiKeys {
		s.APIKeys[k] = v
	}
	for k, v := range r.endpoints {
		s.CustomEndpoints[k] = v
	}
	s.CustomModels = r.models.Filter(func(d Descriptor) bool { return d.Custom })
	return s
}

// Load restores state from the store. Missing or corrupt data leaves the
// defaults in place; the error is logged and returned for callers that
// care, but is never fatal.
func (r *Registry) Load() error {
	if r.store == nil {
		return nil
	}
	var s State
	if err := store.LoadJSON(r.store, ConfigKey, &s); err != nil {
		if !stderrors.Is(err, store.ErrNotFound) {
			observability.LogConfigLoadError(r.logger, ConfigKey, err)
		}
		return err
	}

	for _, d := range s.CustomModels {
		if err := validateDescriptor(d); err != nil || r.builtin[d.ID] {
			r.logger.Warn("skipping persisted custom model", slog.String("model_id", d.ID))
			continue
		}
		d.Custom = true
		r.models.Register(d.ID, d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = DefaultModelID
	if s.CurrentModel != "" && r.models.Has(s.CurrentModel) {
		r.current = s.CurrentModel
	}
	for p, k := range s.APIKeys {
		if p.Valid() && k != "" {
			r.apiKeys[p] = k
		}
	}
	for id, url := range s.CustomEndpoints {
		if url != "" {
			r.endpoints[id] = url
		}
	}
	r.revision.Add(1)
	return nil
}

// Revision increases on every change to the selection, credentials,
// endpoints or custom models, and on a successful Load.
func (r *Registry) Revision() uint64 {
	return r.revision.Load()
}

// Save writes the state to the store.
func (r *Registry) Save() error {
	if r.store == nil {
		return nil
	}
	if err := store.SaveJSON(r.store, ConfigKey, r.State()); err != nil {
		return fmt.Errorf("save model config: %w", err)
	}
	return nil
}

// changed records a mutation: it advances the revision and saves.
func (r *Registry) changed() {
	r.revision.Add(1)
	if err := r.Save(); err != nil {
		r.logger.Warn("could not persist model config", slog.String("error", err.Error()))
	}
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

func validateDescriptor(d Descriptor) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &errors.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q constraint", fe.ActualTag()),
		}
	}
	return fmt.Errorf("validate model: %w", err)
}
