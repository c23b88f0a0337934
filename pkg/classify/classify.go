package classify

import (
	"sort"
	"strings"

	"mesctx/pkg/common"
)

// Channel priority penalties. A declared pattern priority is authoritative
// on the type id, weaker on the raw id, weakest on the display name. The
// attribute channel ignores declared priorities entirely and fires at 0.
const (
	idPenalty   = 10
	namePenalty = 20
)

type candidate struct {
	role     common.Role
	priority int
	channel  int
}

// Classify assigns at most one semantic role to an entity. The decision is
// a pure function of the entity's type id, id, display name and attribute
// keys: the candidate with the lowest priority wins, and ties resolve by
// channel order (type, id, name, attribute) and then rule declaration
// order. Entities matching no rule stay unclassified.
func Classify(entity common.Entity) common.Role {
	candidates := collect(entity)
	if len(candidates) == 0 {
		return common.RoleNone
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.priority < best.priority {
			best = c
		}
	}
	return best.role
}

func collect(entity common.Entity) []candidate {
	var out []candidate

	typeID := strings.ToLower(entity.TypeID)
	id := strings.ToLower(entity.ID)
	name := strings.ToLower(entity.DisplayName)

	for _, p := range typePatterns {
		if strings.Contains(typeID, p.Substring) {
			out = append(out, candidate{role: p.Role, priority: p.Priority, channel: 0})
		}
	}
	for _, p := range typePatterns {
		if strings.Contains(id, p.Substring) {
			out = append(out, candidate{role: p.Role, priority: p.Priority + idPenalty, channel: 1})
		}
	}
	for _, p := range typePatterns {
		if strings.Contains(name, p.Substring) {
			out = append(out, candidate{role: p.Role, priority: p.Priority + namePenalty, channel: 2})
		}
	}

	// Attribute keys are unordered in the map, so they are scanned in
	// sorted order to keep classification deterministic.
	keys := make([]string, 0, len(entity.Attributes))
	for key := range entity.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, p := range attributeIndicators {
		for _, key := range keys {
			if strings.Contains(strings.ToLower(key), p.Substring) {
				out = append(out, candidate{role: p.Role, priority: 0, channel: 3})
				break
			}
		}
	}

	return out
}
