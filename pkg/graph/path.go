package graph

import (
	"mesctx/pkg/common"
)

// Path is one traversal from a start entity to a role-bearing entity.
// NodeIDs includes both endpoints; Labels holds the relationship label of
// each hop, so len(Labels) == Cost.
type Path struct {
	NodeIDs []string
	Labels  []string
	Cost    int
}

// TargetID returns the final node id of the path.
func (p Path) TargetID() string {
	if len(p.NodeIDs) == 0 {
		return ""
	}
	return p.NodeIDs[len(p.NodeIDs)-1]
}

type bfsItem struct {
	id     string
	path   []string
	labels []string
	cost   int
}

// FindNearest searches breadth-first from startID and returns one
// shortest path per target role, in role-discovery order. Queue order
// guarantees the first path recorded for a role has the minimum hop
// count to any node of that role. Roles unreachable from startID are
// simply absent from the result; the caller treats their slots as empty.
//
// The visited set is seeded with startID, so cyclic and dangling
// adjacency entries terminate cleanly: ids without a node are still
// navigated through, they just never satisfy a role.
func FindNearest(g *Graph, startID string, targetRoles map[common.Role]bool) []Path {
	if len(targetRoles) == 0 {
		return nil
	}

	remaining := make(map[common.Role]bool, len(targetRoles))
	for role := range targetRoles {
		if role != common.RoleNone {
			remaining[role] = true
		}
	}

	visited := map[string]bool{startID: true}
	queue := []bfsItem{{id: startID, path: []string{startID}}}

	var found []Path
	for len(queue) > 0 && len(remaining) > 0 {
		current := queue[0]
		queue = queue[1:]

		if node, ok := g.NodeByID(current.id); ok && remaining[node.Role] {
			found = append(found, Path{
				NodeIDs: current.path,
				Labels:  current.labels,
				Cost:    current.cost,
			})
			delete(remaining, node.Role)
		}

		for _, neighborID := range g.Neighbors(current.id) {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			path := make([]string, len(current.path), len(current.path)+1)
			copy(path, current.path)
			path = append(path, neighborID)

			labels := make([]string, len(current.labels), len(current.labels)+1)
			copy(labels, current.labels)
			labels = append(labels, g.LabelBetween(current.id, neighborID))

			queue = append(queue, bfsItem{
				id:     neighborID,
				path:   path,
				labels: labels,
				cost:   current.cost + 1,
			})
		}
	}

	return found
}
