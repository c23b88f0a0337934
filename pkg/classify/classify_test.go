package classify

import (
	"testing"

	"mesctx/pkg/common"
)

func TestClassify_TypeChannel(t *testing.T) {
	tests := []struct {
		name   string
		entity common.Entity
		want   common.Role
	}{
		{
			name:   "order type",
			entity: common.Entity{ID: "x-1", TypeID: "ProductionOrder"},
			want:   common.RoleOrder,
		},
		{
			name:   "job type",
			entity: common.Entity{ID: "x-2", TypeID: "ExecutionJob"},
			want:   common.RoleJob,
		},
		{
			name:   "line type",
			entity: common.Entity{ID: "x-3", TypeID: "PackagingLine"},
			want:   common.RoleLine,
		},
		{
			name:   "equipment synonym machine",
			entity: common.Entity{ID: "x-4", TypeID: "FillingMachine"},
			want:   common.RoleEquipment,
		},
		{
			name:   "operator type",
			entity: common.Entity{ID: "x-5", TypeID: "ShiftOperator"},
			want:   common.RoleOperator,
		},
		{
			name:   "batch type",
			entity: common.Entity{ID: "x-6", TypeID: "MaterialBatch"},
			want:   common.RoleMaterialBatch,
		},
		{
			name:   "unclassified",
			entity: common.Entity{ID: "x-7", TypeID: "Sensor", DisplayName: "Vibration probe"},
			want:   common.RoleNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.entity); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClassify_LowerPriorityWins(t *testing.T) {
	// "MaterialBatch" matches both batch (priority 1) and material
	// (priority 2); batch must win regardless of declaration order.
	entity := common.Entity{ID: "m-1", TypeID: "MaterialBatch"}
	if got := Classify(entity); got != common.RoleMaterialBatch {
		t.Fatalf("expected material batch, got %q", got)
	}

	// "asset" (priority 3) loses to a display name "line" match only if
	// the name channel priority (1+20) is not lower; type channel must win.
	entity = common.Entity{ID: "a-1", TypeID: "Asset", DisplayName: "Line 2 conveyor"}
	if got := Classify(entity); got != common.RoleEquipment {
		t.Fatalf("expected equipment from type channel, got %q", got)
	}
}

func TestClassify_IDWeakerThanType(t *testing.T) {
	// Type says job, id says line: type channel (priority 1) beats the id
	// channel (priority 1+10).
	entity := common.Entity{ID: "line-7", TypeID: "JobExecution"}
	if got := Classify(entity); got != common.RoleJob {
		t.Fatalf("expected job, got %q", got)
	}
}

func TestClassify_NameWeakest(t *testing.T) {
	entity := common.Entity{ID: "op-9", DisplayName: "Filler machine station"}
	// No type, id matches nothing, name matches machine (2+20).
	if got := Classify(entity); got != common.RoleEquipment {
		t.Fatalf("expected equipment, got %q", got)
	}

	entity = common.Entity{ID: "operator-9", DisplayName: "Filler machine station"}
	// id channel operator (1+10) beats name channel machine (2+20).
	if got := Classify(entity); got != common.RoleOperator {
		t.Fatalf("expected operator, got %q", got)
	}
}

func TestClassify_AttributeChannelBeatsNaming(t *testing.T) {
	// Type naming says job, but the schema carries an order-indicative
	// customerId key; the attribute channel fires at priority 0 and wins.
	entity := common.Entity{
		ID:     "j-1",
		TypeID: "JobRecord",
		Attributes: map[string]common.AttrValue{
			"customerId": common.String("ACME"),
		},
	}
	if got := Classify(entity); got != common.RoleOrder {
		t.Fatalf("expected order via attribute channel, got %q", got)
	}
}

func TestClassify_AttributeIndicators(t *testing.T) {
	tests := []struct {
		key  string
		want common.Role
	}{
		{key: "plannedQuantity", want: common.RoleJob},
		{key: "efficiencyPercent", want: common.RoleLine},
		{key: "serialNumber", want: common.RoleEquipment},
		{key: "shiftCode", want: common.RoleOperator},
		{key: "batchNumber", want: common.RoleMaterialBatch},
		{key: "lotNumber", want: common.RoleMaterialBatch},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			entity := common.Entity{
				ID: "x",
				Attributes: map[string]common.AttrValue{
					tt.key: common.Number(1),
				},
			}
			if got := Classify(entity); got != tt.want {
				t.Fatalf("expected %q for key %q, got %q", tt.want, tt.key, got)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	entity := common.Entity{
		ID:          "mix-1",
		TypeID:      "Asset",
		DisplayName: "Order staging lot",
		Attributes: map[string]common.AttrValue{
			"serialNumber": common.String("SN-1"),
			"shift":        common.String("A"),
		},
	}

	first := Classify(entity)
	for i := 0; i < 50; i++ {
		if got := Classify(entity); got != first {
			t.Fatalf("classification not deterministic: %q then %q", first, got)
		}
	}
}
