package source

import (
	"context"
	"time"

	"mesctx/pkg/common"
)

// ListEntitiesParams narrows an instance listing. A zero TypeID lists every
// type; Page is 1-based and a zero PageSize means the source default.
type ListEntitiesParams struct {
	TypeID          string
	Page            int
	PageSize        int
	IncludeMetadata bool
}

// Client is the uniform read/write surface of a single MES backend
// service. The id space is partitioned across services with no shared
// directory, so any single client may legitimately answer ErrNotFound for
// ids owned by a sibling service.
//
// Implementations own their transport and must enforce their own per-call
// timeout; a hung service must never block context assembly indefinitely.
type Client interface {
	// Name identifies the service in logs and on fetched entities.
	Name() string

	// ListNamespaces returns the domain tags the service exposes.
	ListNamespaces(ctx context.Context) ([]string, error)

	// ListTypes returns declared entity types, optionally filtered by
	// namespace (empty string means all).
	ListTypes(ctx context.Context, namespace string) ([]common.EntityType, error)

	// GetType fetches one type definition by id.
	GetType(ctx context.Context, id string) (*common.EntityType, error)

	// ListEntities returns instances, optionally filtered by type, paged.
	ListEntities(ctx context.Context, params ListEntitiesParams) ([]common.Entity, error)

	// GetEntity fetches one instance by id. With includeMetadata the
	// source also returns attributes and declared relationships.
	GetEntity(ctx context.Context, id string, includeMetadata bool) (*common.Entity, error)

	// GetRelated returns the instances declared under one relationship
	// label of the given entity.
	GetRelated(ctx context.Context, id string, label string) ([]common.Entity, error)

	// GetChildren returns the entities below id in the source hierarchy.
	GetChildren(ctx context.Context, id string) ([]common.Entity, error)

	// GetParent returns the entity above id in the source hierarchy.
	GetParent(ctx context.Context, id string) (*common.Entity, error)

	// GetValue returns the current attribute values of an entity.
	GetValue(ctx context.Context, id string) (map[string]common.AttrValue, error)

	// UpdateValue replaces the current attribute values of an entity.
	UpdateValue(ctx context.Context, id string, attrs map[string]common.AttrValue) error

	// GetHistory returns attribute snapshots recorded between from and to.
	GetHistory(ctx context.Context, id string, from, to time.Time) ([]common.ValueSnapshot, error)
}
