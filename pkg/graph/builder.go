package graph

import (
	"context"
	"time"

	"mesctx/pkg/classify"
	"mesctx/pkg/common"
	"mesctx/pkg/logger"
)

// Source is the slice of the entity source surface that graph discovery
// and context assembly consume. *source.Router implements it.
type Source interface {
	ListAllTypes(ctx context.Context) []common.EntityType
	ListAllEntities(ctx context.Context, includeMetadata bool) []common.Entity
	GetEntity(ctx context.Context, id string, includeMetadata bool) (*common.Entity, error)
	GetChildren(ctx context.Context, id string) ([]common.Entity, error)
	GetRelated(ctx context.Context, id string, label string) ([]common.Entity, error)
}

// Builder discovers the cross-service entity graph and owns its TTL
// cache.
type Builder struct {
	src   Source
	cache *Cache
}

// NewBuilderParams configures a Builder. A zero TTL selects DefaultTTL.
type NewBuilderParams struct {
	Source Source
	TTL    time.Duration
}

// NewBuilder creates a Builder over the given source surface.
func NewBuilder(params NewBuilderParams) *Builder {
	return &Builder{
		src:   params.Source,
		cache: NewCache(params.TTL),
	}
}

// Cache exposes the builder's graph cache for inspection endpoints.
func (b *Builder) Cache() *Cache {
	return b.cache
}

// Discover returns the cached graph when it is fresh and forceRefresh is
// false; otherwise it rebuilds from every reachable source and replaces
// the cache wholesale. A source that fails mid-discovery is simply absent
// from the result; when every source is unreachable the returned graph is
// empty, which is a valid outcome rather than an error. The only error
// returned is context cancellation.
func (b *Builder) Discover(ctx context.Context, forceRefresh bool) (*Graph, error) {
	if !forceRefresh {
		if g, ok := b.cache.Get(); ok {
			return g, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	logger.Info("[Graph] Starting discovery", "force_refresh", forceRefresh)

	// The declared types are collected for telemetry only; node creation
	// is driven by the instances themselves.
	types := b.src.ListAllTypes(ctx)
	logger.Debug("[Graph] Declared types fetched", "count", len(types))

	entities := b.src.ListAllEntities(ctx, true)

	g := NewGraph()
	classified := 0
	for _, entity := range entities {
		role := classify.Classify(entity)
		if role != common.RoleNone {
			classified++
		}
		g.AddEntity(entity, role)
	}
	g.stamp(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.cache.Replace(g)

	logger.Info("[Graph] Discovery completed",
		"nodes", g.Len(),
		"edges", g.EdgeCount(),
		"classified", classified,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return g, nil
}
