package tokenizer

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Registry maps model families to tokenizer bundles. Bundles load lazily on
// first resolution and are cached for the process lifetime; the registry is
// optional infrastructure, a binding may never call Resolve.
type Registry struct {
	root   string
	loader EncodingLoader

	mu      sync.Mutex
	entries map[model.Family]*registryEntry
}

// registryEntry guards a single family's load. At most one load proceeds
// per family; concurrent resolvers wait on the same once and share the
// result.
type registryEntry struct {
	once   sync.Once
	bundle *Bundle
	err    error
}

// RegistryOption is a functional option for configuring the Registry.
type RegistryOption func(*Registry)

// WithEncodingLoader overrides the BPE encoding loader, primarily for tests.
func WithEncodingLoader(loader EncodingLoader) RegistryOption {
	return func(r *Registry) {
		r.loader = loader
	}
}

// NewRegistry creates a registry rooted at the artifact directory. Each
// enumerated family resolves against a subdirectory named for the family.
func NewRegistry(root string, opts ...RegistryOption) *Registry {
	r := &Registry{
		root:    root,
		loader:  TiktokenLoader,
		entries: make(map[model.Family]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the bundle for a family, loading it on first use.
// Resolution is idempotent: repeated calls after a successful load return
// the referentially identical bundle without re-reading storage. Fails with
// ErrUnknownFamily for non-enumerated families and ErrMissingArtifact when
// any required artifact is absent or unreadable.
func (r *Registry) Resolve(family model.Family) (*Bundle, error) {
	if !family.Known() {
		return nil, errors.NewError(errors.CodeFamily,
			fmt.Sprintf("family %q is not enumerated", family), errors.ErrUnknownFamily)
	}

	r.mu.Lock()
	entry, ok := r.entries[family]
	if !ok {
		entry = &registryEntry{}
		r.entries[family] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.bundle, entry.err = loadBundle(r.FamilyDir(family), family, r.loader)
	})

	return entry.bundle, entry.err
}

// FamilyDir returns the artifact directory for a family.
func (r *Registry) FamilyDir(family model.Family) string {
	return filepath.Join(r.root, string(family))
}

// Root returns the artifact root directory.
func (r *Registry) Root() string { return r.root }

// Validate eagerly resolves every enumerated family and reports the
// families whose artifacts are unavailable. Used at startup so missing
// directories surface as configuration findings, not first-use surprises.
func (r *Registry) Validate() map[model.Family]error {
	missing := make(map[model.Family]error)
	for _, family := range model.Families() {
		if _, err := r.Resolve(family); err != nil {
			missing[family] = err
		}
	}
	return missing
}
