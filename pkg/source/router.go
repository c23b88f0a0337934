package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"mesctx/pkg/common"
	"mesctx/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Router fans entity operations out over several backend services that
// share one id space without a shared directory. A lookup probes each
// service in configuration order and returns the first success; a probe
// failure of any kind counts as "this service doesn't have it".
//
// The service that answers for an id is remembered, so writes and history
// calls for the same id route directly instead of re-probing.
type Router struct {
	clients []Client

	mu     sync.RWMutex
	origin map[string]Client
}

// NewRouter creates a router over the given service clients. Probe order
// is the order of the slice and stays deterministic for the router's
// lifetime.
func NewRouter(clients ...Client) *Router {
	return &Router{
		clients: clients,
		origin:  make(map[string]Client),
	}
}

// Sources returns the configured service clients in probe order.
func (r *Router) Sources() []Client {
	return r.clients
}

func (r *Router) known(id string) Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.origin[id]
}

func (r *Router) remember(id string, c Client) {
	r.mu.Lock()
	r.origin[id] = c
	r.mu.Unlock()
}

// probe runs fn against the remembered service for id first, then every
// other service in order, returning on the first success. All errors are
// swallowed into a miss; exhaustion is ErrNotFound.
func (r *Router) probe(ctx context.Context, id string, fn func(Client) error) error {
	tried := map[string]bool{}

	if c := r.known(id); c != nil {
		if err := fn(c); err == nil {
			return nil
		} else if !errors.Is(err, common.ErrNotFound) {
			logger.Warn("[Source] Call to remembered service failed", "source", c.Name(), "id", id, "err", err)
		}
		tried[c.Name()] = true
	}

	for _, c := range r.clients {
		if tried[c.Name()] {
			continue
		}
		err := fn(c)
		if err == nil {
			r.remember(id, c)
			return nil
		}
		if errors.Is(err, common.ErrNotFound) {
			logger.Debug("[Source] Miss", "source", c.Name(), "id", id)
		} else {
			logger.Warn("[Source] Probe failed", "source", c.Name(), "id", id, "err", err)
		}
	}

	return common.ErrNotFound
}

// GetEntity probes every service for id. The returned entity is tagged
// with the name of the service that answered.
func (r *Router) GetEntity(ctx context.Context, id string, includeMetadata bool) (*common.Entity, error) {
	var found *common.Entity
	err := r.probe(ctx, id, func(c Client) error {
		entity, err := c.GetEntity(ctx, id, includeMetadata)
		if err != nil {
			return err
		}
		entity.Source = c.Name()
		found = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetRelated probes every service for the entity's relationship targets.
func (r *Router) GetRelated(ctx context.Context, id string, label string) ([]common.Entity, error) {
	var found []common.Entity
	err := r.probe(ctx, id, func(c Client) error {
		related, err := c.GetRelated(ctx, id, label)
		if err != nil {
			return err
		}
		for i := range related {
			related[i].Source = c.Name()
		}
		found = related
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetChildren probes every service for the entity's children.
func (r *Router) GetChildren(ctx context.Context, id string) ([]common.Entity, error) {
	var found []common.Entity
	err := r.probe(ctx, id, func(c Client) error {
		children, err := c.GetChildren(ctx, id)
		if err != nil {
			return err
		}
		for i := range children {
			children[i].Source = c.Name()
		}
		found = children
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetParent probes every service for the entity's parent.
func (r *Router) GetParent(ctx context.Context, id string) (*common.Entity, error) {
	var found *common.Entity
	err := r.probe(ctx, id, func(c Client) error {
		parent, err := c.GetParent(ctx, id)
		if err != nil {
			return err
		}
		parent.Source = c.Name()
		found = parent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetValue probes every service for the entity's current values.
func (r *Router) GetValue(ctx context.Context, id string) (map[string]common.AttrValue, error) {
	var found map[string]common.AttrValue
	err := r.probe(ctx, id, func(c Client) error {
		attrs, err := c.GetValue(ctx, id)
		if err != nil {
			return err
		}
		found = attrs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateValue routes a value replacement to the service that owns id,
// probing only when the owner is not yet known.
func (r *Router) UpdateValue(ctx context.Context, id string, attrs map[string]common.AttrValue) error {
	return r.probe(ctx, id, func(c Client) error {
		return c.UpdateValue(ctx, id, attrs)
	})
}

// GetHistory routes a history query to the service that owns id, probing
// only when the owner is not yet known.
func (r *Router) GetHistory(ctx context.Context, id string, from, to time.Time) ([]common.ValueSnapshot, error) {
	var found []common.ValueSnapshot
	err := r.probe(ctx, id, func(c Client) error {
		snapshots, err := c.GetHistory(ctx, id, from, to)
		if err != nil {
			return err
		}
		found = snapshots
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListAllTypes aggregates the declared types of every reachable service.
// Sources are queried concurrently; unreachable ones are logged and
// skipped.
func (r *Router) ListAllTypes(ctx context.Context) []common.EntityType {
	eg, gCtx := errgroup.WithContext(ctx)
	mutex := sync.Mutex{}

	var out []common.EntityType
	for _, c := range r.clients {
		client := c
		eg.Go(func() error {
			types, err := client.ListTypes(gCtx, "")
			if err != nil {
				logger.Warn("[Source] Failed to list types", "source", client.Name(), "err", err)
				return nil
			}
			mutex.Lock()
			out = append(out, types...)
			mutex.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return out
}

// ListAllEntities aggregates every instance of every reachable service,
// tagged with the service that produced it. Sources are queried
// concurrently; an unreachable service is logged and its entities are
// simply absent.
func (r *Router) ListAllEntities(ctx context.Context, includeMetadata bool) []common.Entity {
	params := ListEntitiesParams{IncludeMetadata: includeMetadata}

	eg, gCtx := errgroup.WithContext(ctx)
	mutex := sync.Mutex{}

	var out []common.Entity
	for _, c := range r.clients {
		client := c
		eg.Go(func() error {
			entities, err := client.ListEntities(gCtx, params)
			if err != nil {
				logger.Warn("[Source] Failed to list entities", "source", client.Name(), "err", err)
				return nil
			}
			for i := range entities {
				entities[i].Source = client.Name()
				r.remember(entities[i].ID, client)
			}
			mutex.Lock()
			out = append(out, entities...)
			mutex.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return out
}
