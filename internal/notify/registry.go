package notify

import (
	"slices"

	"github.com/gosuda/auditor/internal/messenger"
)

// Registry is a simple map-based MessengerRegistry.
type Registry struct {
	messengers map[string]messenger.Messenger
}

// NewRegistry creates a Registry holding the given messengers, keyed by
// their Platform().
func NewRegistry(ms ...messenger.Messenger) *Registry {
	r := &Registry{messengers: make(map[string]messenger.Messenger, len(ms))}
	for _, m := range ms {
		r.Register(m)
	}
	return r
}

// Register adds m, replacing any messenger already registered for its platform.
func (r *Registry) Register(m messenger.Messenger) {
	r.messengers[m.Platform()] = m
}

// Get returns the messenger for the given platform, or false if not registered.
func (r *Registry) Get(platform string) (messenger.Messenger, bool) {
	m, ok := r.messengers[platform]
	return m, ok
}

// Platforms lists the registered platform names in sorted order.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.messengers))
	for name := range r.messengers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
