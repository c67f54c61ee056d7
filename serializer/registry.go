package serializer

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/arloliu/fastxlsx/errs"
)

// Registry resolves and caches one Serializer per reflect.Type.
//
// Resolution runs at most once per type: the first resolver installs a
// placeholder so recursive types terminate, and its result, including a
// failure, is kept for the lifetime of the registry. A Registry is safe for
// concurrent use.
type Registry struct {
	custom map[reflect.Type]Serializer
	named  sync.Map // string → Serializer
	cache  sync.Map // reflect.Type → Serializer
	mu     sync.Mutex
}

var defaultRegistry = &Registry{custom: map[reflect.Type]Serializer{}}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry creates an isolated registry. The custom serializers are
// consulted before the built-in strategies; each must implement ElementTyper.
func NewRegistry(custom ...Serializer) (*Registry, error) {
	r := &Registry{custom: make(map[reflect.Type]Serializer, len(custom))}
	for _, s := range custom {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds a caller serializer keyed by its element type. It fails with
// errs.ErrInvalidConfiguration when s does not implement ElementTyper or when
// the type was already resolved by this registry.
func (r *Registry) Register(s Serializer) error {
	et, ok := s.(ElementTyper)
	if !ok || et.ElementType() == nil {
		return fmt.Errorf("%w: serializer %T does not declare an element type", errs.ErrInvalidConfiguration, s)
	}

	t := et.ElementType()
	if _, resolved := r.cache.Load(t); resolved {
		return fmt.Errorf("%w: type %v already resolved", errs.ErrInvalidConfiguration, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.custom == nil {
		r.custom = make(map[reflect.Type]Serializer)
	}
	r.custom[t] = s

	return nil
}

// RegisterNamed registers s under name for struct members tagged
// `xlsx:"serializer:name"`. s must implement ElementTyper.
func (r *Registry) RegisterNamed(name string, s Serializer) error {
	if name == "" {
		return fmt.Errorf("%w: empty serializer name", errs.ErrInvalidConfiguration)
	}
	if _, ok := s.(ElementTyper); !ok {
		return fmt.Errorf("%w: serializer %q (%T) does not declare an element type", errs.ErrInvalidConfiguration, name, s)
	}

	r.named.Store(name, s)

	return nil
}

func (r *Registry) lookupNamed(name string) (Serializer, bool) {
	s, ok := r.named.Load(name)
	if !ok {
		return nil, false
	}

	return s.(Serializer), true //nolint: forcetypeassert
}

func (r *Registry) lookupCustom(t reflect.Type) (Serializer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.custom[t]

	return s, ok
}

// Resolve returns the serializer for t. Unsupported types fail with an error
// wrapping errs.ErrUnsupportedType; the failure is cached and returned again
// on later calls.
func (r *Registry) Resolve(t reflect.Type) (Serializer, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", errs.ErrUnsupportedType)
	}

	s := r.serializerFor(t)
	if ind, ok := s.(*indirectSerializer); ok {
		s = ind.resolve()
	}
	if es, ok := s.(*errorSerializer); ok {
		return nil, es.err
	}

	return s, nil
}

// ResolveFor returns the serializer for T from r, or from the default registry
// when r is nil.
func ResolveFor[T any](r *Registry) (Serializer, error) {
	if r == nil {
		r = DefaultRegistry()
	}

	return r.Resolve(reflect.TypeFor[T]())
}

// serializerFor returns the cached serializer for t, building it on first use.
// Recursive calls for a type under construction get a placeholder that
// forwards to the final serializer.
func (r *Registry) serializerFor(t reflect.Type) Serializer {
	if s, ok := r.cache.Load(t); ok {
		return s.(Serializer) //nolint: forcetypeassert
	}

	var (
		wg sync.WaitGroup
		s  Serializer
	)
	wg.Add(1)
	ind := &indirectSerializer{wait: wg.Wait, target: &s}
	fi, loaded := r.cache.LoadOrStore(t, ind)
	if loaded {
		return fi.(Serializer) //nolint: forcetypeassert
	}

	s = r.build(t)
	wg.Done()
	r.cache.Store(t, s)

	return s
}

// build walks the resolution chain for t.
func (r *Registry) build(t reflect.Type) Serializer {
	if s, ok := r.lookupCustom(t); ok {
		return s
	}

	for _, p := range providers {
		s, err := p(r, t)
		if err != nil {
			return newErrorSerializer(t, err)
		}
		if s != nil {
			return s
		}
	}

	return newErrorSerializer(t, errs.Unsupported(t, "no strategy matches "+t.Kind().String()))
}

// provider returns a serializer when it handles t, nil when it does not, or
// an error when it handles t but cannot build a serializer for it.
type provider func(r *Registry, t reflect.Type) (Serializer, error)

var (
	// valueProviders are the strategies consulted ahead of the object graph.
	valueProviders []provider
	providers      []provider
)

func init() {
	valueProviders = []provider{
		primitiveProvider,
		builtinProvider,
		annotationProvider,
		genericProvider,
		collectionProvider,
		fallbackProvider,
	}
	providers = append(slices.Clip(valueProviders), objectGraphProvider)
}

// memberSerializer resolves t for use inside a composite serializer. A
// member that cannot be serialized makes the composite fail as a whole.
func (r *Registry) memberSerializer(t reflect.Type) (Serializer, error) {
	s := r.serializerFor(t)
	if es, ok := s.(*errorSerializer); ok {
		return nil, es.err
	}

	return s, nil
}

// indirectSerializer stands in for a serializer that is still being built.
type indirectSerializer struct {
	wait   func()
	target *Serializer
}

func (s *indirectSerializer) resolve() Serializer {
	s.wait()
	return *s.target
}

func (s *indirectSerializer) Serialize(w *Writer, v reflect.Value) error {
	return s.resolve().Serialize(w, v)
}

func (s *indirectSerializer) WriteTitle(w *Writer, v reflect.Value, name string) error {
	return s.resolve().WriteTitle(w, v, name)
}
