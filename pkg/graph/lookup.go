package graph

import "github.com/aretw0/pathway/pkg/domain"

// FindNodeByID returns a pointer into nodes, or nil when id is unknown.
func FindNodeByID(nodes []domain.Node, id string) *domain.Node {
	if i := FindNodeIndex(nodes, id); i >= 0 {
		return &nodes[i]
	}
	return nil
}

// FindNodeIndex returns the position of id in nodes, or -1.
func FindNodeIndex(nodes []domain.Node, id string) int {
	if id == "" {
		return -1
	}
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func indexNodes(nodes []domain.Node) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := idx[n.ID]; !dup {
			idx[n.ID] = i
		}
	}
	return idx
}
