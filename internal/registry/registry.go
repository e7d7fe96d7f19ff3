package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/rs/zerolog/log"
)

var (
	ErrTypeExists       = errors.New("registry: type already registered")
	ErrDuplicateHook    = errors.New("registry: duplicate hook")
	ErrIgnoredNamespace = errors.New("registry: type in ignored namespace")
	ErrInvalidName      = errors.New("registry: invalid name")
	ErrOwnerMismatch    = errors.New("registry: owner type mismatch")
)

// DefaultDenylist matches host-runtime and base-library namespaces that are
// never scanned.
var DefaultDenylist = regexp.MustCompile(`^(runtime|reflect|sync|unsafe|internal|builtin)\.`)

// Builder collects registrations. It is safe for concurrent use.
type Builder struct {
	mu     sync.Mutex
	deny   *regexp.Regexp
	types  map[string]*TypeDescriptor
	order  []string
	values []value.Type
	scan   *value.Catalog
	errs   []error
	built  *Registry
}

// BuilderOption configures a Builder.
type BuilderOption func(b *Builder)

// WithDenylist replaces the namespace denylist. A nil pattern disables it.
func WithDenylist(re *regexp.Regexp) BuilderOption {
	return func(b *Builder) { b.deny = re }
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		deny:  DefaultDenylist,
		types: make(map[string]*TypeDescriptor),
		scan:  value.NewCatalog(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a type. Configuration problems inside opts (duplicate hooks,
// bad fields) are reported through Errors and the rest of the type is kept.
// A type with nothing to persist is not cached.
func (b *Builder) Register(name string, opts ...Option) error {
	name = strings.TrimSpace(name)
	if !validName(name) {
		return b.report(fmt.Errorf("%w: type %q", ErrInvalidName, name))
	}
	if b.deny != nil && b.deny.MatchString(name) {
		log.Debug().Str("type", name).Msg("registry: ignored namespace")
		return fmt.Errorf("%w: %s", ErrIgnoredNamespace, name)
	}

	desc := &TypeDescriptor{Name: name, Category: Instance}
	var problems []error
	for _, opt := range opts {
		if err := opt(desc); err != nil {
			problems = append(problems, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, err := range problems {
		b.reportLocked(err)
	}
	if _, exists := b.types[name]; exists {
		return b.reportLocked(fmt.Errorf("%w: %s", ErrTypeExists, name))
	}
	if !desc.Cacheable() {
		log.Debug().Str("type", name).Msg("registry: nothing to persist, not cached")
		return nil
	}
	b.types[name] = desc
	b.order = append(b.order, name)
	return nil
}

// ValueType adds an enum or struct value type to the catalog.
func (b *Builder) ValueType(t value.Type) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.scan.Register(t); err != nil {
		return b.reportLocked(err)
	}
	b.values = append(b.values, t)
	return nil
}

// Errors returns every configuration problem reported so far.
func (b *Builder) Errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]error(nil), b.errs...)
}

// Build freezes the registrations. Until Invalidate is called, later calls
// return the same Registry.
func (b *Builder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built != nil {
		return b.built
	}

	catalog := value.NewCatalog()
	for _, t := range b.values {
		_ = catalog.Register(t)
	}
	reg := &Registry{
		types:   make(map[string]*TypeDescriptor, len(b.types)),
		catalog: catalog,
	}
	for _, name := range b.order {
		desc := b.types[name].clone()
		for _, f := range desc.Fields {
			if _, err := catalog.Resolve(f.Type.Name()); err != nil {
				log.Warn().Err(err).Str("type", name).Str("field", f.Name).Msg("registry: field type not in catalog")
			}
		}
		reg.types[name] = desc
		reg.names = append(reg.names, name)
		if desc.Category == Static {
			reg.statics = append(reg.statics, desc)
		}
	}
	sort.Strings(reg.names)
	b.built = reg
	log.Debug().Int("types", len(reg.names)).Int("statics", len(reg.statics)).Msg("registry: built")
	return reg
}

// Invalidate drops the frozen Registry so the next Build rescans.
func (b *Builder) Invalidate() {
	b.mu.Lock()
	b.built = nil
	b.mu.Unlock()
}

func (b *Builder) report(err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reportLocked(err)
}

func (b *Builder) reportLocked(err error) error {
	log.Warn().Err(err).Msg("registry: configuration error")
	b.errs = append(b.errs, err)
	return err
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, " \t\n[]")
}

// Registry is the frozen set of persistable types.
type Registry struct {
	types   map[string]*TypeDescriptor
	names   []string
	statics []*TypeDescriptor
	catalog *value.Catalog
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (*TypeDescriptor, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.types[name]
	return d, ok
}

// IsInstance reports whether name is a cached per-entity type.
func (r *Registry) IsInstance(name string) bool {
	d, ok := r.Lookup(name)
	return ok && d.Category == Instance
}

// Statics returns the Static types in registration order.
func (r *Registry) Statics() []*TypeDescriptor {
	return append([]*TypeDescriptor(nil), r.statics...)
}

// Names returns every cached type name, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *Registry) Len() int { return len(r.names) }

// Catalog resolves value type names for leaf decoding.
func (r *Registry) Catalog() *value.Catalog {
	return r.catalog
}
