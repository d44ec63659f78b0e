package hooks

import (
	"context"
	"sort"
	"sync"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
)

// Priority orders hook execution; higher runs first
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityMedium Priority = 500
	PriorityHigh   Priority = 1000
)

// HookBeforeRouteChat is the routing chain invoked for every inquiry
// before agent assignment
const HookBeforeRouteChat = "livechat.beforeRouteChat"

// Handler receives the inquiry produced by the previous handler and returns
// the (possibly mutated) inquiry for the next one. A nil inquiry is a valid
// chained value: it means no pending inquiry and is passed through.
type Handler func(ctx context.Context, inquiry *entities.Inquiry) (*entities.Inquiry, error)

type registration struct {
	id       string
	priority Priority
	handler  Handler
}

// Registry holds named hooks. Handlers are kept sorted by descending
// priority at registration time; ties run in registration order.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]registration
}

// NewRegistry creates an empty hook registry
func NewRegistry() *Registry {
	return &Registry{
		hooks: make(map[string][]registration),
	}
}

// Register adds a handler under a hook name. The id names the handler for
// logging and replacement: registering the same id again replaces the
// previous handler.
func (r *Registry) Register(hook, id string, priority Priority, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.hooks[hook]
	for i := range regs {
		if regs[i].id == id {
			regs = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	regs = append(regs, registration{id: id, priority: priority, handler: handler})
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].priority > regs[j].priority
	})
	r.hooks[hook] = regs
}

// Unregister removes a handler by id
func (r *Registry) Unregister(hook, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.hooks[hook]
	for i := range regs {
		if regs[i].id == id {
			r.hooks[hook] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Run chains the inquiry through every handler of a hook in priority order.
// The first handler error aborts the remaining chain and is returned with
// the last successfully produced inquiry value.
func (r *Registry) Run(ctx context.Context, hook string, inquiry *entities.Inquiry) (*entities.Inquiry, error) {
	r.mu.RLock()
	regs := make([]registration, len(r.hooks[hook]))
	copy(regs, r.hooks[hook])
	r.mu.RUnlock()

	current := inquiry
	for _, reg := range regs {
		next, err := reg.handler(ctx, current)
		if err != nil {
			observability.LoggerFromContext(ctx).Error().
				Err(err).
				Str("hook", hook).
				Str("handler", reg.id).
				Msg("Hook handler failed, aborting chain")
			return current, err
		}
		current = next
	}
	return current, nil
}
