package graph

import (
	"testing"

	"mesctx/pkg/common"
)

func chainGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	g.AddEntity(common.Entity{
		ID:     "job-1",
		TypeID: "JobExecution",
		Relationships: map[string][]string{
			"ExecutedOn": {"line-1"},
		},
	}, common.RoleJob)
	g.AddEntity(common.Entity{
		ID:     "line-1",
		TypeID: "ProductionLine",
		Relationships: map[string][]string{
			"HasChildren": {"filler-1"},
		},
	}, common.RoleLine)
	g.AddEntity(common.Entity{
		ID:     "filler-1",
		TypeID: "FillingMachine",
	}, common.RoleEquipment)
	return g
}

func TestFindNearest_ChainAllRoles(t *testing.T) {
	g := chainGraph(t)

	paths := FindNearest(g, "job-1", map[common.Role]bool{
		common.RoleLine:      true,
		common.RoleEquipment: true,
	})
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}

	// Discovery order: nearer roles first.
	if paths[0].TargetID() != "line-1" || paths[0].Cost != 1 {
		t.Fatalf("expected line-1 at cost 1, got %s at %d", paths[0].TargetID(), paths[0].Cost)
	}
	if paths[1].TargetID() != "filler-1" || paths[1].Cost != 2 {
		t.Fatalf("expected filler-1 at cost 2, got %s at %d", paths[1].TargetID(), paths[1].Cost)
	}

	wantLabels := []string{"ExecutedOn", "HasChildren"}
	for i, label := range paths[1].Labels {
		if label != wantLabels[i] {
			t.Fatalf("expected labels %v, got %v", wantLabels, paths[1].Labels)
		}
	}
}

func TestFindNearest_CostsNonDecreasing(t *testing.T) {
	g := chainGraph(t)
	g.AddEntity(common.Entity{
		ID:     "operator-1",
		TypeID: "ShiftOperator",
	}, common.RoleOperator)
	g.AddEntity(common.Entity{
		ID: "filler-1",
		Relationships: map[string][]string{
			"OperatedBy": {"operator-1"},
		},
	}, common.RoleEquipment)

	paths := FindNearest(g, "job-1", map[common.Role]bool{
		common.RoleLine:      true,
		common.RoleEquipment: true,
		common.RoleOperator:  true,
	})

	last := 0
	for _, p := range paths {
		if p.Cost < last {
			t.Fatalf("path costs must be non-decreasing in discovery order, got %v", paths)
		}
		last = p.Cost
	}
}

func TestFindNearest_ShortestWins(t *testing.T) {
	// Two routes to an equipment node: a direct edge and a two-hop
	// detour. The recorded path must be the one-hop route.
	g := NewGraph()
	g.AddEntity(common.Entity{
		ID: "start",
		Relationships: map[string][]string{
			"Uses":       {"filler-9"},
			"ExecutedOn": {"line-9"},
		},
	}, common.RoleJob)
	g.AddEntity(common.Entity{
		ID: "line-9",
		Relationships: map[string][]string{
			"HasChildren": {"filler-9"},
		},
	}, common.RoleLine)
	g.AddEntity(common.Entity{ID: "filler-9", TypeID: "FillingMachine"}, common.RoleEquipment)

	paths := FindNearest(g, "start", map[common.Role]bool{common.RoleEquipment: true})
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(paths))
	}
	if paths[0].Cost != 1 {
		t.Fatalf("expected shortest path cost 1, got %d", paths[0].Cost)
	}
}

func TestFindNearest_CycleTerminates(t *testing.T) {
	g := NewGraph()
	g.AddEntity(common.Entity{
		ID:            "a",
		Relationships: map[string][]string{"Next": {"b"}},
	}, common.RoleNone)
	g.AddEntity(common.Entity{
		ID:            "b",
		Relationships: map[string][]string{"Next": {"c"}},
	}, common.RoleNone)
	g.AddEntity(common.Entity{
		ID:            "c",
		Relationships: map[string][]string{"Next": {"a"}, "AssociatedWithBatch": {"batch-1"}},
	}, common.RoleNone)
	g.AddEntity(common.Entity{ID: "batch-1", TypeID: "MaterialBatch"}, common.RoleMaterialBatch)

	paths := FindNearest(g, "a", map[common.Role]bool{
		common.RoleMaterialBatch: true,
		common.RoleOperator:      true,
	})
	if len(paths) != 1 {
		t.Fatalf("expected exactly the batch path, got %d paths", len(paths))
	}
	if paths[0].TargetID() != "batch-1" || paths[0].Cost != 3 {
		t.Fatalf("expected batch-1 at cost 3, got %s at %d", paths[0].TargetID(), paths[0].Cost)
	}
}

func TestFindNearest_DanglingNeighborTolerated(t *testing.T) {
	g := NewGraph()
	g.AddEntity(common.Entity{
		ID:            "job-1",
		Relationships: map[string][]string{"LinkedOrder": {"order-ghost"}},
	}, common.RoleJob)

	paths := FindNearest(g, "job-1", map[common.Role]bool{common.RoleOrder: true})
	if len(paths) != 0 {
		t.Fatalf("a dangling id must not satisfy a role, got %v", paths)
	}
}

func TestFindNearest_StartUnknown(t *testing.T) {
	g := chainGraph(t)
	paths := FindNearest(g, "nope", map[common.Role]bool{common.RoleLine: true})
	if len(paths) != 0 {
		t.Fatalf("expected no paths from unknown start, got %v", paths)
	}
}

func TestFindNearest_NoTargets(t *testing.T) {
	g := chainGraph(t)
	if paths := FindNearest(g, "job-1", nil); len(paths) != 0 {
		t.Fatalf("expected no paths for empty target set, got %v", paths)
	}
}
