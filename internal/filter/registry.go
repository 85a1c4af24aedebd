package filter

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/logging"
)

// Request carries a validated Apply call to a filter constructor.
type Request struct {
	// Name is the registered filter name.
	Name string
	// Inputs are the image inputs in descriptor order.
	Inputs []*graph.Image
	// Values are the parameters with defaults filled in.
	Values Values
	// Serializable is copied from the descriptor.
	Serializable bool
}

// Node returns a filter node computed by k over the request inputs.
func (r Request) Node(k graph.Kernel) *graph.Image {
	return graph.NewFilter(graph.Filter{
		Name:         r.Name,
		Params:       r.Values,
		Kernel:       k,
		Serializable: r.Serializable,
	}, r.Inputs...)
}

// Constructor builds the node for one application of a filter. It may
// return any node, not only filter nodes; an affine transform filter, for
// example, returns a transform node.
type Constructor func(req Request) (*graph.Image, error)

type entry struct {
	desc Descriptor
	ctor Constructor
}

// Registry maps filter names to descriptors and constructors. The zero
// value is not usable; call NewRegistry.
type Registry struct {
	mu   sync.Mutex // serialises writers
	snap atomic.Pointer[map[string]entry]
}

var _ graph.FilterApplier = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	m := make(map[string]entry)
	r.snap.Store(&m)
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. It starts empty.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a filter. It fails with imgerr.ErrDuplicateFilterName when
// the name is taken and with imgerr.ErrInvalidParameter when the descriptor
// schema is inconsistent.
func (r *Registry) Register(name string, desc Descriptor, ctor Constructor) error {
	if name == "" || ctor == nil {
		return imgerr.Newf("register", imgerr.ErrInvalidParameter, "filter %q: missing name or constructor", name)
	}
	if err := desc.validate(); err != nil {
		return imgerr.Wrap("register", imgerr.ErrInvalidParameter, name, err)
	}
	desc.Name = name
	if desc.DisplayName == "" {
		desc.DisplayName = name
	}
	desc.Categories = slices.Clone(desc.Categories)
	desc.Inputs = slices.Clone(desc.Inputs)
	desc.Params = slices.Clone(desc.Params)

	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.snap.Load()
	if _, ok := old[name]; ok {
		return imgerr.New("register", imgerr.ErrDuplicateFilterName, fmt.Sprintf("%q", name))
	}
	next := make(map[string]entry, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[name] = entry{desc: desc, ctor: ctor}
	r.snap.Store(&next)

	logging.Logger().Info("registered filter", "name", name, "categories", desc.Categories)
	return nil
}

// Lookup returns the descriptor of a registered filter.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	e, ok := (*r.snap.Load())[name]
	if !ok {
		return Descriptor{}, false
	}
	d := e.desc
	d.Categories = slices.Clone(d.Categories)
	d.Inputs = slices.Clone(d.Inputs)
	d.Params = slices.Clone(d.Params)
	return d, true
}

// Names returns the filters in category, sorted. An empty category selects
// every filter.
func (r *Registry) Names(category string) []string {
	if category == "" {
		return r.NamesInCategories(nil)
	}
	return r.NamesInCategories([]string{category})
}

// NamesInCategories returns the filters that belong to all of the given
// categories, sorted. No categories selects every filter.
func (r *Registry) NamesInCategories(categories []string) []string {
	snap := *r.snap.Load()
	names := make([]string, 0, len(snap))
	for name, e := range snap {
		if inAll(e.desc, categories) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func inAll(d Descriptor, categories []string) bool {
	for _, c := range categories {
		if !d.InCategory(c) {
			return false
		}
	}
	return true
}

// Apply validates params against the filter's schema and builds the node.
// It fails with imgerr.ErrUnknownFilter for unregistered names and with
// imgerr.ErrInvalidParameter for bad keys, types, ranges under
// PolicyReject, or the wrong number of inputs.
func (r *Registry) Apply(name string, inputs []*graph.Image, params map[string]any) (*graph.Image, error) {
	e, ok := (*r.snap.Load())[name]
	if !ok {
		return nil, imgerr.New("apply", imgerr.ErrUnknownFilter, fmt.Sprintf("%q", name))
	}
	if len(inputs) != len(e.desc.Inputs) {
		return nil, imgerr.Newf("apply", imgerr.ErrInvalidParameter,
			"%s: got %d image inputs, want %d", name, len(inputs), len(e.desc.Inputs))
	}
	for i, in := range inputs {
		if in == nil {
			return nil, imgerr.Newf("apply", imgerr.ErrInvalidParameter, "%s.%s: nil image", name, e.desc.Inputs[i])
		}
	}

	values, err := resolve(e.desc, params)
	if err != nil {
		return nil, err
	}
	img, err := e.ctor(Request{
		Name:         name,
		Inputs:       slices.Clone(inputs),
		Values:       values,
		Serializable: e.desc.Serializable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", name, err)
	}
	return img, nil
}

// Resolve validates params against a registered filter's schema without
// building a node. It returns the full parameter set, defaults included.
func (r *Registry) Resolve(name string, params map[string]any) (Values, error) {
	e, ok := (*r.snap.Load())[name]
	if !ok {
		return nil, imgerr.New("resolve", imgerr.ErrUnknownFilter, fmt.Sprintf("%q", name))
	}
	return resolve(e.desc, params)
}

func resolve(d Descriptor, params map[string]any) (Values, error) {
	for key := range params {
		if _, ok := d.Param(key); !ok {
			return nil, imgerr.Newf("apply", imgerr.ErrInvalidParameter, "%s.%s: not in schema", d.Name, key)
		}
	}

	values := make(Values, len(d.Params))
	for _, p := range d.Params {
		raw, ok := params[p.Key]
		if !ok {
			raw = p.Default
		}
		v, err := coerce(p, raw)
		if err != nil {
			return nil, imgerr.Wrap("apply", imgerr.ErrInvalidParameter, d.Name+"."+p.Key, err)
		}
		v, err = p.checkRange(v)
		if err != nil {
			return nil, imgerr.Wrap("apply", imgerr.ErrInvalidParameter, d.Name+"."+p.Key, err)
		}
		values[p.Key] = v
	}
	return values, nil
}
