package classify

import "mesctx/pkg/common"

// TypePattern is one ranked classification rule. Substring is matched
// case-insensitively; a lower Priority outranks a higher one.
type TypePattern struct {
	Substring string
	Role      common.Role
	Priority  int
}

// typePatterns is the ranked rule table shared by the type-id, id and
// display-name channels. Declaration order is the tie-break for equal
// priorities within one channel.
var typePatterns = []TypePattern{
	{Substring: "order", Role: common.RoleOrder, Priority: 1},
	{Substring: "job", Role: common.RoleJob, Priority: 1},
	{Substring: "workrequest", Role: common.RoleJob, Priority: 3},
	{Substring: "line", Role: common.RoleLine, Priority: 1},
	{Substring: "cell", Role: common.RoleLine, Priority: 3},
	{Substring: "area", Role: common.RoleLine, Priority: 4},
	{Substring: "equipment", Role: common.RoleEquipment, Priority: 1},
	{Substring: "machine", Role: common.RoleEquipment, Priority: 2},
	{Substring: "asset", Role: common.RoleEquipment, Priority: 3},
	{Substring: "operator", Role: common.RoleOperator, Priority: 1},
	{Substring: "personnel", Role: common.RoleOperator, Priority: 2},
	{Substring: "employee", Role: common.RoleOperator, Priority: 3},
	{Substring: "batch", Role: common.RoleMaterialBatch, Priority: 1},
	{Substring: "material", Role: common.RoleMaterialBatch, Priority: 2},
	{Substring: "lot", Role: common.RoleMaterialBatch, Priority: 3},
}

// attributeIndicators maps role-indicative attribute key fragments to the
// role whose schema typically carries them. The attribute channel reflects
// the schema rather than naming, so it always fires at priority 0.
var attributeIndicators = []TypePattern{
	{Substring: "customerid", Role: common.RoleOrder},
	{Substring: "plannedquantity", Role: common.RoleJob},
	{Substring: "efficiency", Role: common.RoleLine},
	{Substring: "serialnumber", Role: common.RoleEquipment},
	{Substring: "shift", Role: common.RoleOperator},
	{Substring: "batchnumber", Role: common.RoleMaterialBatch},
	{Substring: "lotnumber", Role: common.RoleMaterialBatch},
}
