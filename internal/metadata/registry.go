package metadata

import (
	"sort"
	"sync"
)

type Registry struct {
	mu           sync.RWMutex
	zips         map[string]*Zip
	actions      map[string]*Action
	actionsByZip map[string][]*Action // ordered by position
}

func NewRegistry() *Registry {
	return &Registry{
		zips:         make(map[string]*Zip),
		actions:      make(map[string]*Action),
		actionsByZip: make(map[string][]*Action),
	}
}

// GetZip returns the zip with the given id, or nil.
func (r *Registry) GetZip(id string) *Zip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.zips[id]
}

// AllZips returns all registered zips ordered by title.
func (r *Registry) AllZips() []*Zip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	zips := make([]*Zip, 0, len(r.zips))
	for _, z := range r.zips {
		zips = append(zips, z)
	}
	sort.Slice(zips, func(i, j int) bool { return zips[i].Title < zips[j].Title })
	return zips
}

// GetAction returns the action with the given id, or nil.
func (r *Registry) GetAction(id string) *Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actions[id]
}

// ActionsForZip returns the zip's actions in execution order.
func (r *Registry) ActionsForZip(zipID string) []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Action(nil), r.actionsByZip[zipID]...)
}

// Load replaces all zips and actions in the registry.
// Called during startup and after admin mutations.
func (r *Registry) Load(zips []*Zip, actions []*Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.zips = make(map[string]*Zip, len(zips))
	for _, z := range zips {
		r.zips[z.ID] = z
	}

	r.actions = make(map[string]*Action, len(actions))
	r.actionsByZip = make(map[string][]*Action)
	for _, a := range actions {
		r.actions[a.ID] = a
		r.actionsByZip[a.ZipID] = append(r.actionsByZip[a.ZipID], a)
	}
	for _, list := range r.actionsByZip {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
	}
}
