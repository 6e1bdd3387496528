package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const choiceHandlePrefix = "choice-"

// Edge is a directed connection between two nodes. Edges are derived from node routing
// data and must never be authored independently.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// ChoiceHandle returns the source handle identifying the router choice at index.
func ChoiceHandle(index int) string {
	return choiceHandlePrefix + strconv.Itoa(index)
}

// ParseChoiceHandle extracts the choice index from a handle. ok is false for
// handles that do not follow the choice-<index> scheme.
func ParseChoiceHandle(handle string) (index int, ok bool) {
	raw, found := strings.CutPrefix(handle, choiceHandlePrefix)
	if !found {
		return 0, false
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// NextEdgeID is the id of the edge projecting a non-router NextNodeID.
func NextEdgeID(source, target string) string {
	return fmt.Sprintf("e%s-%s", source, target)
}

// ChoiceEdgeID is the id of the edge projecting router choice index.
func ChoiceEdgeID(source, target string, index int) string {
	return fmt.Sprintf("e%s-%s-%d", source, target, index)
}
