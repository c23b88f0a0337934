package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"mesctx/pkg/common"
)

func chainAggregator(t *testing.T) (*Aggregator, *fakeSource) {
	t.Helper()

	src := newFakeSource()
	src.add(common.Entity{
		ID:     "job-1",
		TypeID: "JobExecution",
		Relationships: map[string][]string{
			"ExecutedOn":  {"line-1"},
			"LinkedOrder": {"order-4"},
		},
	})
	src.add(common.Entity{
		ID:     "line-1",
		TypeID: "ProductionLine",
		Relationships: map[string][]string{
			"HasChildren": {"filler-1"},
		},
	})
	src.add(common.Entity{ID: "filler-1", TypeID: "FillingMachine"})

	// order-4 lives on a service that was down during discovery, so it
	// is resolvable by id but absent from listings.
	src.add(common.Entity{ID: "order-4", TypeID: "CustomerOrder"})
	src.unlisted["order-4"] = true

	builder := NewBuilder(NewBuilderParams{Source: src, TTL: time.Minute})
	return NewAggregator(builder), src
}

func TestBuildContext_FillsChainSlots(t *testing.T) {
	agg, _ := chainAggregator(t)

	result, err := agg.BuildContext(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if result.Job == nil || result.Job.ID != "job-1" {
		t.Fatalf("expected job slot job-1, got %+v", result.Job)
	}
	if result.Line == nil || result.Line.ID != "line-1" {
		t.Fatalf("expected line slot line-1, got %+v", result.Line)
	}
	if result.Equipment == nil || result.Equipment.ID != "filler-1" {
		t.Fatalf("expected equipment slot filler-1, got %+v", result.Equipment)
	}
	if result.Operator != nil || result.MaterialBatch != nil {
		t.Fatalf("expected empty operator and batch slots, got %+v / %+v", result.Operator, result.MaterialBatch)
	}
}

func TestBuildContext_FallbackResolvesUnlistedOrder(t *testing.T) {
	agg, _ := chainAggregator(t)

	result, err := agg.BuildContext(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if result.Order == nil || result.Order.ID != "order-4" {
		t.Fatalf("expected order slot order-4 via label fallback, got %+v", result.Order)
	}

	// The resolved entity is inserted into the cached graph.
	g, _ := agg.builder.cache.Get()
	if _, ok := g.NodeByID("order-4"); !ok {
		t.Fatal("expected order-4 inserted into the cached graph")
	}
}

func TestBuildContext_MergedRelationshipsDeduplicated(t *testing.T) {
	agg, _ := chainAggregator(t)

	result, err := agg.BuildContext(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	want := map[string][]RelationPair{
		"ExecutedOn":  {{SubjectID: "job-1", ObjectID: "line-1"}},
		"LinkedOrder": {{SubjectID: "job-1", ObjectID: "order-4"}},
		"HasChildren": {{SubjectID: "line-1", ObjectID: "filler-1"}},
	}
	if !reflect.DeepEqual(result.MergedRelationships, want) {
		t.Fatalf("merged relationships mismatch:\n got %+v\nwant %+v", result.MergedRelationships, want)
	}
}

func TestBuildContext_Idempotent(t *testing.T) {
	agg, _ := chainAggregator(t)

	first, err := agg.BuildContext(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	second, err := agg.BuildContext(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results:\n first %+v\nsecond %+v", first, second)
	}
}

func TestBuildContext_BlankID(t *testing.T) {
	agg, _ := chainAggregator(t)

	for _, id := range []string{"", "   ", "\t"} {
		if _, err := agg.BuildContext(context.Background(), id); !errors.Is(err, common.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID for %q, got %v", id, err)
		}
	}
}

func TestBuildContext_UnknownIDYieldsEmptyResult(t *testing.T) {
	agg, _ := chainAggregator(t)

	result, err := agg.BuildContext(context.Background(), "ghost-7")
	if err != nil {
		t.Fatalf("expected nil error for unknown id, got %v", err)
	}

	if result.StartID != "ghost-7" {
		t.Fatalf("expected start id echoed, got %q", result.StartID)
	}
	for _, role := range common.AllRoles() {
		if result.Slot(role) != nil {
			t.Fatalf("expected empty %s slot for unknown id", role)
		}
	}
	if result.MergedRelationships == nil || len(result.MergedRelationships) != 0 {
		t.Fatalf("expected empty merged relationships, got %+v", result.MergedRelationships)
	}
}

func TestBuildContext_StartFetchedWhenAbsentFromGraph(t *testing.T) {
	agg, src := chainAggregator(t)
	src.add(common.Entity{ID: "job-9", TypeID: "JobExecution"})
	src.unlisted["job-9"] = true

	result, err := agg.BuildContext(context.Background(), "job-9")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Job == nil || result.Job.ID != "job-9" {
		t.Fatalf("expected fetched start entity in job slot, got %+v", result.Job)
	}
}

// miskeyedSource answers GetEntity for one id with a body whose id field
// does not match the request.
type miskeyedSource struct {
	*fakeSource
	id   string
	body common.Entity
}

func (m *miskeyedSource) GetEntity(ctx context.Context, id string, includeMetadata bool) (*common.Entity, error) {
	if id == m.id {
		e := m.body
		return &e, nil
	}
	return m.fakeSource.GetEntity(ctx, id, includeMetadata)
}

func TestBuildContext_MismatchedStartBodyYieldsEmptyResult(t *testing.T) {
	for _, body := range []common.Entity{
		{ID: ""},
		{ID: "job-42", TypeID: "JobExecution"},
	} {
		src := &miskeyedSource{fakeSource: newFakeSource(), id: "job-9", body: body}
		agg := NewAggregator(NewBuilder(NewBuilderParams{Source: src, TTL: time.Minute}))

		result, err := agg.BuildContext(context.Background(), "job-9")
		if err != nil {
			t.Fatalf("expected nil error for body id %q, got %v", body.ID, err)
		}
		if result.StartID != "job-9" {
			t.Fatalf("expected start id echoed, got %q", result.StartID)
		}
		for _, role := range common.AllRoles() {
			if result.Slot(role) != nil {
				t.Fatalf("expected empty %s slot for body id %q", role, body.ID)
			}
		}
	}
}

func TestBuildContext_ChildrenFallbackFillsDownstream(t *testing.T) {
	src := newFakeSource()
	src.add(common.Entity{ID: "line-2", TypeID: "ProductionLine"})
	src.children["line-2"] = []common.Entity{
		{ID: "filler-2", TypeID: "FillingMachine"},
		{ID: "capper-2", TypeID: "CappingMachine"},
		{ID: "sensor-2", TypeID: "TemperatureReading"},
	}

	agg := NewAggregator(NewBuilder(NewBuilderParams{Source: src, TTL: time.Minute}))
	result, err := agg.BuildContext(context.Background(), "line-2")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if result.Equipment == nil || result.Equipment.ID != "filler-2" {
		t.Fatalf("expected first equipment child as primary, got %+v", result.Equipment)
	}
	if len(result.DownstreamEquipment) != 1 || result.DownstreamEquipment[0].ID != "capper-2" {
		t.Fatalf("expected capper-2 downstream, got %+v", result.DownstreamEquipment)
	}
}

func TestBuildContext_SecondaryEquipmentOnPathGoesUpstream(t *testing.T) {
	src := newFakeSource()
	src.add(common.Entity{
		ID:     "filler-3",
		TypeID: "FillingMachine",
		Relationships: map[string][]string{
			"ConnectedTo": {"capper-3"},
		},
	})
	src.add(common.Entity{
		ID:     "capper-3",
		TypeID: "CappingMachine",
		Relationships: map[string][]string{
			"OperatedBy": {"operator-3"},
		},
	})
	src.add(common.Entity{ID: "operator-3", TypeID: "OperatorShift"})

	agg := NewAggregator(NewBuilder(NewBuilderParams{Source: src, TTL: time.Minute}))
	result, err := agg.BuildContext(context.Background(), "filler-3")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if result.Equipment == nil || result.Equipment.ID != "filler-3" {
		t.Fatalf("expected start entity as primary equipment, got %+v", result.Equipment)
	}
	if result.Operator == nil || result.Operator.ID != "operator-3" {
		t.Fatalf("expected operator-3 via path, got %+v", result.Operator)
	}
	if len(result.UpstreamEquipment) != 1 || result.UpstreamEquipment[0].ID != "capper-3" {
		t.Fatalf("expected capper-3 upstream, got %+v", result.UpstreamEquipment)
	}
}
