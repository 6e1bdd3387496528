package domain

import "time"

// AccessType controls who may play a module.
type AccessType string

const (
	AccessPrivate    AccessType = "private"
	AccessPublic     AccessType = "public"
	AccessRestricted AccessType = "restricted"
)

// Module is an authored graph of nodes plus metadata; the unit learners traverse.
type Module struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Nodes       []Node     `json:"nodes"`
	Edges       []Edge     `json:"edges"`
	AccessType  AccessType `json:"access_type,omitempty"`
	Published   bool       `json:"published"`
	OwnerID     string     `json:"owner_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StartNode returns the conventional entry point: the first node in array order.
// It returns nil for an empty module.
func (m *Module) StartNode() *Node {
	if m == nil || len(m.Nodes) == 0 {
		return nil
	}
	return &m.Nodes[0]
}

// Clone returns a deep copy of the module.
func (m *Module) Clone() *Module {
	if m == nil {
		return nil
	}
	c := *m
	c.Nodes = CloneNodes(m.Nodes)
	if m.Edges != nil {
		c.Edges = append([]Edge(nil), m.Edges...)
	}
	return &c
}
