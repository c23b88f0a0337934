package graph

import (
	"strings"
	"sync"
	"time"

	"mesctx/pkg/common"
)

// Direction describes how a relationship label is navigated.
type Direction int

const (
	DirectionForward Direction = iota
	DirectionReverse
	DirectionBidirectional
)

// DirectionForLabel derives the navigation direction from the naming
// convention of a relationship label. Matching is case-insensitive.
func DirectionForLabel(label string) Direction {
	l := strings.ToLower(label)
	if strings.Contains(l, "associatedwith") || strings.Contains(l, "relatedto") {
		return DirectionBidirectional
	}
	if strings.Contains(l, "partof") || strings.Contains(l, "belongsto") || strings.Contains(l, "childof") {
		return DirectionReverse
	}
	return DirectionForward
}

// Node wraps one fetched entity together with its resolved role and the
// service it came from. Nodes are owned by the graph cache; consumers
// only read them.
type Node struct {
	Entity common.Entity
	Role   common.Role
	Source string
}

// Edge is one typed relationship instance between two entity ids. The
// target id may be dangling: relationships routinely point at ids no
// source could resolve, and that is tolerated rather than an error.
type Edge struct {
	FromID    string
	ToID      string
	Label     string
	Direction Direction
}

// Graph is the in-memory cross-service entity graph. It is built
// wholesale by the Builder and then shared read-mostly between requests;
// the only post-build mutation is inserting a directly fetched start
// entity, so all access goes through locked accessors.
type Graph struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	edges     []Edge
	adjacency map[string][]string
	builtAt   time.Time
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		adjacency: make(map[string][]string),
	}
}

// AddEntity classifies nothing itself: it inserts an already classified
// entity as a node, creates its adjacency entry, and materializes edges
// for every declared relationship entry. A bidirectional label also
// inserts the reverse adjacency entry, creating it for targets that were
// never fetched themselves.
func (g *Graph) AddEntity(entity common.Entity, role common.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[entity.ID] = &Node{Entity: entity, Role: role, Source: entity.Source}
	if _, ok := g.adjacency[entity.ID]; !ok {
		g.adjacency[entity.ID] = []string{}
	}

	for label, targets := range entity.Relationships {
		direction := DirectionForLabel(label)
		for _, targetID := range targets {
			g.edges = append(g.edges, Edge{
				FromID:    entity.ID,
				ToID:      targetID,
				Label:     label,
				Direction: direction,
			})
			g.adjacency[entity.ID] = append(g.adjacency[entity.ID], targetID)
			if direction == DirectionBidirectional {
				g.adjacency[targetID] = append(g.adjacency[targetID], entity.ID)
			}
		}
	}
}

// NodeByID returns the node for id, if any.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node, ok := g.nodes[id]
	return node, ok
}

// Neighbors returns a copy of the adjacency entry for id.
func (g *Graph) Neighbors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	entry := g.adjacency[id]
	if len(entry) == 0 {
		return nil
	}
	out := make([]string, len(entry))
	copy(out, entry)
	return out
}

// LabelBetween returns the relationship label of one edge navigable from
// "from" to "to". With parallel edges between the same pair any matching
// label may be returned.
func (g *Graph) LabelBetween(from, to string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.edges {
		if e.FromID == from && e.ToID == to {
			return e.Label
		}
		if e.Direction == DirectionBidirectional && e.FromID == to && e.ToID == from {
			return e.Label
		}
	}
	return ""
}

// Len returns the node count.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of materialized edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// BuiltAt returns the wholesale build timestamp.
func (g *Graph) BuiltAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.builtAt
}

// RoleCounts tallies classified nodes per role. Unclassified nodes are
// not counted.
func (g *Graph) RoleCounts() map[common.Role]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[common.Role]int)
	for _, node := range g.nodes {
		if node.Role != common.RoleNone {
			out[node.Role]++
		}
	}
	return out
}

func (g *Graph) stamp(t time.Time) {
	g.mu.Lock()
	g.builtAt = t
	g.mu.Unlock()
}
