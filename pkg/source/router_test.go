package source

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mesctx/pkg/common"
)

// fakeClient owns a fixed set of entity ids and records which operations
// were asked of it.
type fakeClient struct {
	name     string
	entities map[string]common.Entity
	types    []common.EntityType
	down     bool

	getCalls    int
	updateCalls int
	listCalls   int
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) err() error {
	if f.down {
		return fmt.Errorf("%s unreachable", f.name)
	}
	return nil
}

func (f *fakeClient) ListNamespaces(ctx context.Context) ([]string, error) {
	return nil, f.err()
}

func (f *fakeClient) ListTypes(ctx context.Context, namespace string) ([]common.EntityType, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.types, nil
}

func (f *fakeClient) GetType(ctx context.Context, id string) (*common.EntityType, error) {
	return nil, common.ErrNotFound
}

func (f *fakeClient) ListEntities(ctx context.Context, params ListEntitiesParams) ([]common.Entity, error) {
	f.listCalls++
	if err := f.err(); err != nil {
		return nil, err
	}
	var out []common.Entity
	for _, e := range f.entities {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeClient) GetEntity(ctx context.Context, id string, includeMetadata bool) (*common.Entity, error) {
	f.getCalls++
	if err := f.err(); err != nil {
		return nil, err
	}
	e, ok := f.entities[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &e, nil
}

func (f *fakeClient) GetRelated(ctx context.Context, id string, label string) ([]common.Entity, error) {
	return nil, common.ErrNotFound
}

func (f *fakeClient) GetChildren(ctx context.Context, id string) ([]common.Entity, error) {
	return nil, common.ErrNotFound
}

func (f *fakeClient) GetParent(ctx context.Context, id string) (*common.Entity, error) {
	return nil, common.ErrNotFound
}

func (f *fakeClient) GetValue(ctx context.Context, id string) (map[string]common.AttrValue, error) {
	if _, ok := f.entities[id]; !ok {
		return nil, common.ErrNotFound
	}
	return map[string]common.AttrValue{}, nil
}

func (f *fakeClient) UpdateValue(ctx context.Context, id string, attrs map[string]common.AttrValue) error {
	f.updateCalls++
	if err := f.err(); err != nil {
		return err
	}
	if _, ok := f.entities[id]; !ok {
		return common.ErrNotFound
	}
	return nil
}

func (f *fakeClient) GetHistory(ctx context.Context, id string, from, to time.Time) ([]common.ValueSnapshot, error) {
	return nil, common.ErrNotFound
}

func ownedBy(name string, ids ...string) *fakeClient {
	c := &fakeClient{name: name, entities: make(map[string]common.Entity)}
	for _, id := range ids {
		c.entities[id] = common.Entity{ID: id}
	}
	return c
}

func TestRouter_ProbesInConfigurationOrder(t *testing.T) {
	a := ownedBy("erp")
	b := ownedBy("mes", "job-1")
	r := NewRouter(a, b)

	entity, err := r.GetEntity(context.Background(), "job-1", true)
	if err != nil {
		t.Fatalf("expected hit, got %v", err)
	}
	if entity.Source != "mes" {
		t.Fatalf("expected entity tagged mes, got %q", entity.Source)
	}
	if a.getCalls != 1 {
		t.Fatalf("expected first service probed once, got %d", a.getCalls)
	}
}

func TestRouter_FailingServiceCountsAsMiss(t *testing.T) {
	a := ownedBy("erp", "job-1")
	a.down = true
	b := ownedBy("mes", "job-1")
	r := NewRouter(a, b)

	entity, err := r.GetEntity(context.Background(), "job-1", true)
	if err != nil {
		t.Fatalf("expected the healthy service to answer, got %v", err)
	}
	if entity.Source != "mes" {
		t.Fatalf("expected fallthrough to mes, got %q", entity.Source)
	}
}

func TestRouter_ExhaustionIsNotFound(t *testing.T) {
	r := NewRouter(ownedBy("erp"), ownedBy("mes"))

	if _, err := r.GetEntity(context.Background(), "ghost-1", true); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRouter_StickyRoutingAfterHit(t *testing.T) {
	a := ownedBy("erp")
	b := ownedBy("mes", "job-1")
	r := NewRouter(a, b)

	if _, err := r.GetEntity(context.Background(), "job-1", true); err != nil {
		t.Fatalf("expected hit, got %v", err)
	}
	if err := r.UpdateValue(context.Background(), "job-1", nil); err != nil {
		t.Fatalf("expected routed update, got %v", err)
	}

	if a.getCalls != 1 {
		t.Fatalf("expected no re-probe of the first service, got %d calls", a.getCalls)
	}
	if b.updateCalls != 1 {
		t.Fatalf("expected direct update on the owner, got %d calls", b.updateCalls)
	}
}

func TestRouter_ListAllEntitiesAggregatesAndRemembers(t *testing.T) {
	a := ownedBy("erp", "order-1")
	b := ownedBy("mes", "job-1", "line-1")
	c := ownedBy("scada", "sensor-1")
	c.down = true
	r := NewRouter(a, b, c)

	entities := r.ListAllEntities(context.Background(), true)
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities from reachable services, got %d", len(entities))
	}
	for _, e := range entities {
		if e.Source == "" {
			t.Fatalf("expected source tag on %s", e.ID)
		}
	}

	// Listings establish ownership, so the next lookup routes directly.
	if _, err := r.GetEntity(context.Background(), "job-1", true); err != nil {
		t.Fatalf("expected hit, got %v", err)
	}
	if a.getCalls != 0 {
		t.Fatalf("expected no probe of the first service, got %d calls", a.getCalls)
	}
}

func TestRouter_ListAllTypesSkipsUnreachable(t *testing.T) {
	a := ownedBy("erp")
	a.types = []common.EntityType{{ID: "CustomerOrder"}}
	b := ownedBy("mes")
	b.types = []common.EntityType{{ID: "JobExecution"}, {ID: "ProductionLine"}}
	c := ownedBy("scada")
	c.down = true
	r := NewRouter(a, b, c)

	types := r.ListAllTypes(context.Background())
	if len(types) != 3 {
		t.Fatalf("expected 3 types, got %d", len(types))
	}
}
