package plugin

import (
	"sort"
	"sync"

	"github.com/signia-project/signia/pkg/errs"
)

// Registry holds registered plugins ordered by id, lexicographic, per
// §4.E. It is safe for concurrent use; the core's "reentrant, no shared
// state between jobs" guarantee (§5) only requires that a single Registry
// not corrupt itself under concurrent registration, not that jobs share one.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]Plugin
	hostCap Wants
}

// NewRegistry creates an empty registry. hostCap declares what the embedding
// host is willing to grant; Register refuses any plugin whose Wants exceed
// it.
func NewRegistry(hostCap Wants) *Registry {
	return &Registry{byID: make(map[string]Plugin), hostCap: hostCap}
}

// Register adds a plugin, failing with InvalidArgument if its id is already
// taken or its declared Wants exceed the host's capabilities.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !p.Wants().Satisfies(r.hostCap) {
		return errs.New(errs.KindInvalidArgument, "plugin.wants.exceeds_host", "plugin "+p.ID()+" requires capabilities the host does not grant")
	}
	if _, exists := r.byID[p.ID()]; exists {
		return errs.New(errs.KindInvalidArgument, "plugin.id.duplicate", "plugin id already registered: "+p.ID())
	}
	r.byID[p.ID()] = p
	return nil
}

// Ids returns registered plugin ids in lexicographic order.
func (r *Registry) Ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ForKind selects the unique plugin declaring support for kind. It fails
// with InvalidArgument if no plugin supports kind, and with Invariant if
// more than one does — the dispatch surface requires exactly one handler
// per kind.
func (r *Registry) ForKind(kind Kind) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var match Plugin
	count := 0
	for _, id := range sortedIDs(r.byID) {
		p := r.byID[id]
		for _, k := range p.Supports() {
			if k == kind {
				match = p
				count++
				break
			}
		}
	}
	switch count {
	case 0:
		return nil, errs.New(errs.KindInvalidArgument, "plugin.kind.unhandled", "no registered plugin supports kind "+string(kind))
	case 1:
		return match, nil
	default:
		return nil, errs.New(errs.KindInvariant, "plugin.kind.ambiguous", "more than one registered plugin supports kind "+string(kind))
	}
}

func sortedIDs(byID map[string]Plugin) []string {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
