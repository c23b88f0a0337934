package sim

import (
	"time"

	"mesctx/pkg/common"
)

// Demo builds the three demo backends: an order service, an execution
// service, and an equipment service. The id space is split across them
// and the relationship targets deliberately cross service boundaries.
func Demo() []*Service {
	erp := NewService("erp", "erp")
	erp.AddType(common.EntityType{ID: "CustomerOrder", Name: "Customer Order", Namespace: "erp"})
	erp.AddEntity(common.Entity{
		ID:          "order-100",
		DisplayName: "Order ACME-4711",
		TypeID:      "CustomerOrder",
		Namespace:   "erp",
		Attributes: map[string]common.AttrValue{
			"customerId": common.String("ACME"),
			"quantity":   common.Number(12000),
		},
		Relationships: map[string][]string{
			"OrderJobs": {"job-100"},
		},
	})

	mes := NewService("mes", "mes")
	mes.AddType(common.EntityType{ID: "JobExecution", Name: "Job Execution", Namespace: "mes"})
	mes.AddType(common.EntityType{ID: "ProductionLine", Name: "Production Line", Namespace: "mes"})
	mes.AddType(common.EntityType{ID: "OperatorShift", Name: "Operator Shift", Namespace: "mes"})
	mes.AddType(common.EntityType{ID: "MaterialBatch", Name: "Material Batch", Namespace: "mes"})
	mes.AddEntity(common.Entity{
		ID:          "job-100",
		DisplayName: "Job 100 Filling",
		TypeID:      "JobExecution",
		Namespace:   "mes",
		Attributes: map[string]common.AttrValue{
			"plannedQuantity": common.Number(12000),
			"state":           common.String("running"),
		},
		Relationships: map[string][]string{
			"ExecutedOn":    {"line-100"},
			"LinkedOrder":   {"order-100"},
			"ConsumesBatch": {"batch-100"},
		},
	})
	mes.AddEntity(common.Entity{
		ID:          "line-100",
		DisplayName: "Filling Line North",
		TypeID:      "ProductionLine",
		Namespace:   "mes",
		Attributes: map[string]common.AttrValue{
			"efficiency": common.Number(0.87),
		},
		Relationships: map[string][]string{
			"HasChildren": {"filler-100", "capper-100"},
		},
	})
	mes.AddEntity(common.Entity{
		ID:          "operator-100",
		DisplayName: "Shift Crew A",
		TypeID:      "OperatorShift",
		Namespace:   "mes",
		Attributes: map[string]common.AttrValue{
			"shift": common.String("early"),
		},
	})
	mes.AddEntity(common.Entity{
		ID:          "batch-100",
		DisplayName: "Batch 2026-08-B",
		TypeID:      "MaterialBatch",
		Namespace:   "mes",
		Attributes: map[string]common.AttrValue{
			"batchNumber": common.String("2026-08-B"),
			"expiresAt":   common.Timestamp(time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)),
		},
	})
	mes.SetChildren("line-100",
		common.Entity{ID: "filler-100", DisplayName: "Filler North", TypeID: "FillingMachine", Namespace: "scada"},
		common.Entity{ID: "capper-100", DisplayName: "Capper North", TypeID: "CappingMachine", Namespace: "scada"},
	)

	scada := NewService("scada", "scada")
	scada.AddType(common.EntityType{ID: "FillingMachine", Name: "Filling Machine", Namespace: "scada"})
	scada.AddType(common.EntityType{ID: "CappingMachine", Name: "Capping Machine", Namespace: "scada"})
	scada.AddEntity(common.Entity{
		ID:          "filler-100",
		DisplayName: "Filler North",
		TypeID:      "FillingMachine",
		Namespace:   "scada",
		Attributes: map[string]common.AttrValue{
			"serialNumber": common.String("FN-2214"),
			"temperature":  common.Number(21.5),
			"running":      common.Boolean(true),
		},
		Relationships: map[string][]string{
			"PartOfLine": {"line-100"},
			"OperatedBy": {"operator-100"},
		},
	})
	scada.AddEntity(common.Entity{
		ID:          "capper-100",
		DisplayName: "Capper North",
		TypeID:      "CappingMachine",
		Namespace:   "scada",
		Attributes: map[string]common.AttrValue{
			"serialNumber": common.String("CN-1187"),
		},
		Relationships: map[string][]string{
			"PartOfLine": {"line-100"},
		},
	})
	scada.RecordSnapshot(common.ValueSnapshot{
		EntityID:  "filler-100",
		Timestamp: time.Now().Add(-2 * time.Hour),
		Attributes: map[string]common.AttrValue{
			"temperature": common.Number(20.9),
			"running":     common.Boolean(true),
		},
	})
	scada.RecordSnapshot(common.ValueSnapshot{
		EntityID:  "filler-100",
		Timestamp: time.Now().Add(-time.Hour),
		Attributes: map[string]common.AttrValue{
			"temperature": common.Number(21.2),
			"running":     common.Boolean(true),
		},
	})

	return []*Service{erp, mes, scada}
}
