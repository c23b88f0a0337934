package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no configured source knows an entity id.
var ErrNotFound = errors.New("entity not found")

// ErrInvalidID is returned for a blank or malformed entity id. It is the
// only error a context request surfaces to the caller; every source-side
// failure degrades to an empty slot instead.
var ErrInvalidID = errors.New("invalid entity id")

// Role is one of the six fixed semantic categories a classified entity
// may occupy in a context result. An entity has at most one role.
type Role string

const (
	RoleOrder         Role = "order"
	RoleJob           Role = "job"
	RoleLine          Role = "line"
	RoleEquipment     Role = "equipment"
	RoleOperator      Role = "operator"
	RoleMaterialBatch Role = "material_batch"
	// RoleNone marks an unclassified entity. Unclassified entities are
	// valid graph members but never fill a context slot.
	RoleNone Role = ""
)

// AllRoles lists the six slot-filling roles in their canonical order.
func AllRoles() []Role {
	return []Role{RoleOrder, RoleJob, RoleLine, RoleEquipment, RoleOperator, RoleMaterialBatch}
}

// AttrKind tags the concrete shape held by an AttrValue.
type AttrKind int

const (
	AttrNull AttrKind = iota
	AttrString
	AttrNumber
	AttrBool
	AttrTime
)

// AttrValue is a loosely-typed attribute value. Sources expose
// heterogeneous per-type schemas, so every attribute is carried as a
// tagged variant instead of a bare any.
type AttrValue struct {
	Kind AttrKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// String returns an AttrValue holding a string.
func String(s string) AttrValue { return AttrValue{Kind: AttrString, Str: s} }

// Number returns an AttrValue holding a float64.
func Number(n float64) AttrValue { return AttrValue{Kind: AttrNumber, Num: n} }

// Boolean returns an AttrValue holding a bool.
func Boolean(b bool) AttrValue { return AttrValue{Kind: AttrBool, Bool: b} }

// Timestamp returns an AttrValue holding a point in time.
func Timestamp(t time.Time) AttrValue { return AttrValue{Kind: AttrTime, Time: t} }

// MarshalJSON encodes the variant as its natural JSON value.
func (v AttrValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AttrString:
		return json.Marshal(v.Str)
	case AttrNumber:
		return json.Marshal(v.Num)
	case AttrBool:
		return json.Marshal(v.Bool)
	case AttrTime:
		return json.Marshal(v.Time.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into the matching variant kind.
// RFC3339 strings become timestamps; anything non-scalar is rejected.
func (v *AttrValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		*v = AttrValue{Kind: AttrNull}
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			*v = Timestamp(t)
		} else {
			*v = String(val)
		}
	case float64:
		*v = Number(val)
	case bool:
		*v = Boolean(val)
	default:
		return fmt.Errorf("unsupported attribute value: %s", string(data))
	}
	return nil
}

// Equal reports whether two attribute values hold the same kind and payload.
func (v AttrValue) Equal(o AttrValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case AttrString:
		return v.Str == o.Str
	case AttrNumber:
		return v.Num == o.Num
	case AttrBool:
		return v.Bool == o.Bool
	case AttrTime:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}

// Entity is one manufacturing object as reported by a single backend
// service. Entities are immutable snapshots: every fetch produces a new
// value with no live binding back to the source.
//
// Relationships maps a relationship-type label to the ordered target ids
// declared under that label. A single entity may hold many labels.
type Entity struct {
	ID            string               `json:"id"`
	DisplayName   string               `json:"display_name"`
	TypeID        string               `json:"type_id"`
	Namespace     string               `json:"namespace"`
	Source        string               `json:"source,omitempty"`
	Attributes    map[string]AttrValue `json:"attributes,omitempty"`
	Relationships map[string][]string  `json:"relationships,omitempty"`
}

// EntityType describes one source-defined entity type.
type EntityType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Namespace   string `json:"namespace"`
	Description string `json:"description,omitempty"`
}

// ValueSnapshot is one historical attribute state of an entity.
type ValueSnapshot struct {
	EntityID   string               `json:"entity_id"`
	Timestamp  time.Time            `json:"timestamp"`
	Attributes map[string]AttrValue `json:"attributes"`
}
