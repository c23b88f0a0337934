package graph

import (
	"context"
	"errors"
	"sort"
	"strings"

	"mesctx/pkg/classify"
	"mesctx/pkg/common"
	"mesctx/pkg/logger"
)

// RelationPair is one deduplicated (subject, object) relationship
// instance under a label in a context result.
type RelationPair struct {
	SubjectID string `json:"subject_id"`
	ObjectID  string `json:"object_id"`
}

// Context is the aggregated operational surrounding of one entity: the
// nearest instance of each semantic role, secondary equipment, and the
// merged relationship map of everything that filled a slot. Empty slots
// are legitimate output, never an error. Results are built fresh per
// request and never cached.
type Context struct {
	StartID       string         `json:"start_id"`
	Order         *common.Entity `json:"order"`
	Job           *common.Entity `json:"job"`
	Line          *common.Entity `json:"line"`
	Equipment     *common.Entity `json:"equipment"`
	Operator      *common.Entity `json:"operator"`
	MaterialBatch *common.Entity `json:"material_batch"`

	UpstreamEquipment   []common.Entity `json:"upstream_equipment,omitempty"`
	DownstreamEquipment []common.Entity `json:"downstream_equipment,omitempty"`

	MergedRelationships map[string][]RelationPair `json:"merged_relationships"`
}

// Slot returns the entity filling a role, if any.
func (c *Context) Slot(role common.Role) *common.Entity {
	switch role {
	case common.RoleOrder:
		return c.Order
	case common.RoleJob:
		return c.Job
	case common.RoleLine:
		return c.Line
	case common.RoleEquipment:
		return c.Equipment
	case common.RoleOperator:
		return c.Operator
	case common.RoleMaterialBatch:
		return c.MaterialBatch
	default:
		return nil
	}
}

func (c *Context) setSlot(role common.Role, entity *common.Entity) {
	switch role {
	case common.RoleOrder:
		c.Order = entity
	case common.RoleJob:
		c.Job = entity
	case common.RoleLine:
		c.Line = entity
	case common.RoleEquipment:
		c.Equipment = entity
	case common.RoleOperator:
		c.Operator = entity
	case common.RoleMaterialBatch:
		c.MaterialBatch = entity
	}
}

// fallbackRule directs the last-resort lookup for one role after graph
// search came up empty. Keyword rules scan the relationship labels of
// already filled anchor slots; the children rule asks the source for the
// anchor's children directly. When several targets qualify the
// first-declared one wins.
type fallbackRule struct {
	role     common.Role
	anchors  []common.Role
	keywords []string
	children bool
}

var fallbackRules = []fallbackRule{
	{role: common.RoleOrder, anchors: []common.Role{common.RoleJob}, keywords: []string{"order"}},
	{role: common.RoleJob, anchors: []common.Role{common.RoleOrder, common.RoleLine}, keywords: []string{"job"}},
	{role: common.RoleLine, anchors: []common.Role{common.RoleJob, common.RoleEquipment}, keywords: []string{"line"}},
	{role: common.RoleEquipment, anchors: []common.Role{common.RoleLine}, children: true},
	{role: common.RoleOperator, keywords: []string{"operator", "personnel"}},
	{role: common.RoleMaterialBatch, keywords: []string{"batch", "material"}},
}

// Aggregator assembles context results on top of the Builder's cached
// graph and the source surface for the few direct fetches graph search
// cannot cover.
type Aggregator struct {
	builder *Builder
}

// NewAggregator creates an Aggregator sharing the builder's source.
func NewAggregator(builder *Builder) *Aggregator {
	return &Aggregator{builder: builder}
}

// BuildContext resolves the full operational context of one entity id.
// A blank id is the only input rejected outright; an id no source knows
// yields a result with every slot empty.
func (a *Aggregator) BuildContext(ctx context.Context, startID string) (*Context, error) {
	startID = strings.TrimSpace(startID)
	if startID == "" {
		return nil, common.ErrInvalidID
	}

	g, err := a.builder.Discover(ctx, false)
	if err != nil {
		return nil, err
	}

	result := &Context{
		StartID:             startID,
		MergedRelationships: make(map[string][]RelationPair),
	}

	startNode, ok := g.NodeByID(startID)
	if !ok {
		entity, err := a.builder.src.GetEntity(ctx, startID, true)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				logger.Warn("[Context] Start entity unknown to every source", "id", startID)
				return result, nil
			}
			return nil, err
		}
		if entity.ID != startID {
			logger.Warn("[Context] Source answered with a different id for start entity", "requested", startID, "got", entity.ID)
			return result, nil
		}
		g.AddEntity(*entity, classify.Classify(*entity))
		startNode, ok = g.NodeByID(startID)
		if !ok {
			return result, nil
		}
	}

	equipmentSeen := map[string]bool{}
	if startNode.Role != common.RoleNone {
		entity := startNode.Entity
		result.setSlot(startNode.Role, &entity)
		if startNode.Role == common.RoleEquipment {
			equipmentSeen[entity.ID] = true
		}
	}

	remaining := make(map[common.Role]bool)
	for _, role := range common.AllRoles() {
		if result.Slot(role) == nil {
			remaining[role] = true
		}
	}

	for _, path := range FindNearest(g, startID, remaining) {
		a.walkPath(g, path, result, equipmentSeen)
	}

	a.applyFallbacks(ctx, g, result, equipmentSeen)
	a.mergeRelationships(result)

	return result, nil
}

// walkPath fills slots from every node along a found path, first
// encounter wins. Equipment encountered after the primary slot is filled
// is appended to the upstream list instead of being dropped.
func (a *Aggregator) walkPath(g *Graph, path Path, result *Context, equipmentSeen map[string]bool) {
	for _, id := range path.NodeIDs[1:] {
		node, ok := g.NodeByID(id)
		if !ok || node.Role == common.RoleNone {
			continue
		}

		entity := node.Entity
		if result.Slot(node.Role) == nil {
			result.setSlot(node.Role, &entity)
			if node.Role == common.RoleEquipment {
				equipmentSeen[entity.ID] = true
			}
			continue
		}

		if node.Role == common.RoleEquipment && !equipmentSeen[entity.ID] {
			equipmentSeen[entity.ID] = true
			result.UpstreamEquipment = append(result.UpstreamEquipment, entity)
		}
	}
}

// applyFallbacks runs one targeted lookup per still-empty role using the
// relationship labels backends are known to declare directly. When
// several candidates qualify the first-declared one wins.
func (a *Aggregator) applyFallbacks(ctx context.Context, g *Graph, result *Context, equipmentSeen map[string]bool) {
	for _, rule := range fallbackRules {
		if result.Slot(rule.role) != nil {
			continue
		}

		anchors := rule.anchors
		if len(anchors) == 0 {
			anchors = common.AllRoles()
		}

		for _, anchorRole := range anchors {
			anchor := result.Slot(anchorRole)
			if anchor == nil || anchorRole == rule.role {
				continue
			}

			var resolved *common.Entity
			if rule.children {
				resolved = a.resolveFromChildren(ctx, g, anchor, result, equipmentSeen)
			} else {
				resolved = a.resolveFromLabels(ctx, g, anchor, rule.keywords)
			}
			if resolved == nil {
				continue
			}

			logger.Debug("[Context] Fallback filled slot",
				"role", string(rule.role),
				"anchor", anchor.ID,
				"entity", resolved.ID,
			)
			result.setSlot(rule.role, resolved)
			if rule.role == common.RoleEquipment {
				equipmentSeen[resolved.ID] = true
			}
			break
		}
	}
}

// resolveFromLabels scans the anchor's relationship labels for a role
// keyword and resolves the first declared target that exists anywhere.
func (a *Aggregator) resolveFromLabels(ctx context.Context, g *Graph, anchor *common.Entity, keywords []string) *common.Entity {
	labels := make([]string, 0, len(anchor.Relationships))
	for label := range anchor.Relationships {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		if !labelMatches(label, keywords) {
			continue
		}
		for _, targetID := range anchor.Relationships[label] {
			if entity := a.resolveEntity(ctx, g, targetID); entity != nil {
				return entity
			}
		}
	}
	return nil
}

// resolveFromChildren asks the source for the anchor's children. The
// first child classified as equipment becomes the slot; every further
// equipment child goes to the downstream list.
func (a *Aggregator) resolveFromChildren(ctx context.Context, g *Graph, anchor *common.Entity, result *Context, equipmentSeen map[string]bool) *common.Entity {
	children, err := a.builder.src.GetChildren(ctx, anchor.ID)
	if err != nil {
		logger.Warn("[Context] Failed to fetch children", "anchor", anchor.ID, "err", err)
		return nil
	}

	var primary *common.Entity
	for i := range children {
		child := children[i]
		if classify.Classify(child) != common.RoleEquipment {
			continue
		}
		if primary == nil {
			primary = &child
			continue
		}
		if !equipmentSeen[child.ID] {
			equipmentSeen[child.ID] = true
			result.DownstreamEquipment = append(result.DownstreamEquipment, child)
		}
	}
	return primary
}

// resolveEntity looks an id up in the cached graph first and falls back
// to a direct source fetch, inserting the fetched entity so later
// searches see it. Unresolvable ids return nil.
func (a *Aggregator) resolveEntity(ctx context.Context, g *Graph, id string) *common.Entity {
	if node, ok := g.NodeByID(id); ok {
		entity := node.Entity
		return &entity
	}

	entity, err := a.builder.src.GetEntity(ctx, id, true)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logger.Warn("[Context] Failed to resolve entity", "id", id, "err", err)
		}
		return nil
	}
	g.AddEntity(*entity, classify.Classify(*entity))
	return entity
}

// mergeRelationships folds the relationship map of every slotted or
// listed entity into one map, deduplicated by (label, subject, object).
func (a *Aggregator) mergeRelationships(result *Context) {
	var members []*common.Entity
	for _, role := range common.AllRoles() {
		if entity := result.Slot(role); entity != nil {
			members = append(members, entity)
		}
	}
	for i := range result.UpstreamEquipment {
		members = append(members, &result.UpstreamEquipment[i])
	}
	for i := range result.DownstreamEquipment {
		members = append(members, &result.DownstreamEquipment[i])
	}

	seen := map[string]bool{}
	for _, member := range members {
		for label, targets := range member.Relationships {
			for _, targetID := range targets {
				key := label + "|" + member.ID + "|" + targetID
				if seen[key] {
					continue
				}
				seen[key] = true
				result.MergedRelationships[label] = append(result.MergedRelationships[label], RelationPair{
					SubjectID: member.ID,
					ObjectID:  targetID,
				})
			}
		}
	}
}

func labelMatches(label string, keywords []string) bool {
	l := strings.ToLower(label)
	for _, keyword := range keywords {
		if strings.Contains(l, keyword) {
			return true
		}
	}
	return false
}
