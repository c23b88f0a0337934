package sim

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"mesctx/pkg/common"

	"github.com/labstack/echo/v4"
)

// Service is one in-memory MES backend for local development and tests.
// It serves the same HTTP surface the production backends expose, backed
// by seeded data.
type Service struct {
	name       string
	namespaces []string

	mu       sync.RWMutex
	types    map[string]common.EntityType
	entities map[string]common.Entity
	children map[string][]common.Entity
	parents  map[string]common.Entity
	values   map[string]map[string]common.AttrValue
	history  map[string][]common.ValueSnapshot
}

func NewService(name string, namespaces ...string) *Service {
	return &Service{
		name:       name,
		namespaces: namespaces,
		types:      make(map[string]common.EntityType),
		entities:   make(map[string]common.Entity),
		children:   make(map[string][]common.Entity),
		parents:    make(map[string]common.Entity),
		values:     make(map[string]map[string]common.AttrValue),
		history:    make(map[string][]common.ValueSnapshot),
	}
}

func (s *Service) Name() string {
	return s.name
}

// AddType registers a declared entity type.
func (s *Service) AddType(t common.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[t.ID] = t
}

// AddEntity registers an entity. Its attributes become the initial
// current values.
func (s *Service) AddEntity(e common.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e
	if len(e.Attributes) > 0 {
		values := make(map[string]common.AttrValue, len(e.Attributes))
		for k, v := range e.Attributes {
			values[k] = v
		}
		s.values[e.ID] = values
	}
}

// SetChildren registers the hierarchy below an entity.
func (s *Service) SetChildren(id string, children ...common.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[id] = children
	for _, child := range children {
		if parent, ok := s.entities[id]; ok {
			s.parents[child.ID] = parent
		}
	}
}

// RecordSnapshot appends a historical value state for an entity.
func (s *Service) RecordSnapshot(snapshot common.ValueSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[snapshot.EntityID] = append(s.history[snapshot.EntityID], snapshot)
}

// Handler returns the service's HTTP surface.
func (s *Service) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/api/namespaces", s.listNamespaces)
	e.GET("/api/types", s.listTypes)
	e.GET("/api/types/:id", s.getType)
	e.GET("/api/entities", s.listEntities)
	e.GET("/api/entities/:id", s.getEntity)
	e.GET("/api/entities/:id/related", s.getRelated)
	e.GET("/api/entities/:id/children", s.getChildren)
	e.GET("/api/entities/:id/parent", s.getParent)
	e.GET("/api/entities/:id/value", s.getValue)
	e.PUT("/api/entities/:id/value", s.putValue)
	e.GET("/api/entities/:id/history", s.getHistory)

	return e
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
}

func (s *Service) listNamespaces(c echo.Context) error {
	return c.JSON(http.StatusOK, s.namespaces)
}

func (s *Service) listTypes(c echo.Context) error {
	namespace := c.QueryParam("namespace")

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.EntityType, 0, len(s.types))
	for _, t := range s.types {
		if namespace != "" && t.Namespace != namespace {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Service) getType(c echo.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.types[c.Param("id")]
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Service) listEntities(c echo.Context) error {
	typeID := c.QueryParam("type")
	includeMetadata := c.QueryParam("metadata") == "true"
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if typeID != "" && e.TypeID != typeID {
			continue
		}
		out = append(out, stripped(e, includeMetadata))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if page > 0 && pageSize > 0 {
		start := (page - 1) * pageSize
		if start >= len(out) {
			out = []common.Entity{}
		} else {
			end := start + pageSize
			if end > len(out) {
				end = len(out)
			}
			out = out[start:end]
		}
	}

	return c.JSON(http.StatusOK, out)
}

func (s *Service) getEntity(c echo.Context) error {
	includeMetadata := c.QueryParam("metadata") == "true"

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[c.Param("id")]
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, stripped(e, includeMetadata))
}

func (s *Service) getRelated(c echo.Context) error {
	label := c.QueryParam("relationship")

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[c.Param("id")]
	if !ok {
		return notFound(c)
	}

	out := make([]common.Entity, 0)
	for _, targetID := range e.Relationships[label] {
		if target, ok := s.entities[targetID]; ok {
			out = append(out, target)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Service) getChildren(c echo.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[c.Param("id")]; !ok {
		return notFound(c)
	}
	children := s.children[c.Param("id")]
	if children == nil {
		children = []common.Entity{}
	}
	return c.JSON(http.StatusOK, children)
}

func (s *Service) getParent(c echo.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.parents[c.Param("id")]
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, parent)
}

func (s *Service) getValue(c echo.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.values[c.Param("id")]
	if !ok {
		if _, known := s.entities[c.Param("id")]; !known {
			return notFound(c)
		}
		values = map[string]common.AttrValue{}
	}
	return c.JSON(http.StatusOK, values)
}

func (s *Service) putValue(c echo.Context) error {
	id := c.Param("id")

	attrs := make(map[string]common.AttrValue)
	if err := c.Bind(&attrs); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[id]; !ok {
		return notFound(c)
	}

	s.values[id] = attrs
	s.history[id] = append(s.history[id], common.ValueSnapshot{
		EntityID:   id,
		Timestamp:  time.Now(),
		Attributes: attrs,
	})

	return c.NoContent(http.StatusNoContent)
}

func (s *Service) getHistory(c echo.Context) error {
	id := c.Param("id")

	var from, to time.Time
	if raw := c.QueryParam("from"); raw != "" {
		from, _ = time.Parse(time.RFC3339, raw)
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, _ = time.Parse(time.RFC3339, raw)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[id]; !ok {
		return notFound(c)
	}

	out := make([]common.ValueSnapshot, 0)
	for _, snapshot := range s.history[id] {
		if !from.IsZero() && snapshot.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && snapshot.Timestamp.After(to) {
			continue
		}
		out = append(out, snapshot)
	}
	return c.JSON(http.StatusOK, out)
}

// stripped drops attributes and relationships unless metadata was asked
// for, matching how the production backends behave.
func stripped(e common.Entity, includeMetadata bool) common.Entity {
	if includeMetadata {
		return e
	}
	e.Attributes = nil
	e.Relationships = nil
	return e
}
