package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/adapters/file"
	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
	"github.com/aretw0/pathway/pkg/ports"
)

// CourseID is the id of the module built by Course.
const CourseID = "course"

// Epoch is a fixed instant for deterministic clocks.
var Epoch = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// Clock returns a clock frozen at Epoch.
func Clock() func() time.Time {
	return func() time.Time { return Epoch }
}

// Course builds a module exercising every playback path:
//
//	intro -> hint (overlay: Continue -> quiz, Skip -> end)
//	quiz (required text input) -> pick (router: Finish -> end, Again -> intro)
//	end
func Course() *domain.Module {
	nodes := []domain.Node{
		{ID: "intro", Type: domain.NodeTypeMessage,
			Data: domain.NodeData{Title: "Hi {{.name}}", Content: "Welcome aboard.", NextNodeID: "hint"}},
		{ID: "hint", Type: domain.NodeTypeRouter, Position: domain.Position{X: 200},
			Data: domain.NodeData{Question: "Need a hint?", IsOverlay: true, Choices: []domain.Choice{
				{Text: "Continue", NextNodeID: "quiz"}, {Text: "Skip", NextNodeID: "end"},
			}}},
		{ID: "quiz", Type: domain.NodeTypeTextInput, Position: domain.Position{Y: 100},
			Data: domain.NodeData{Question: "What is 6 x 7?", IsRequired: true, NextNodeID: "pick"}},
		{ID: "pick", Type: domain.NodeTypeRouter, Position: domain.Position{Y: 200},
			Data: domain.NodeData{Question: "Done?", Choices: []domain.Choice{
				{Text: "Finish", NextNodeID: "end"}, {Text: "Again", NextNodeID: "intro"},
			}}},
		{ID: "end", Type: domain.NodeTypeMessage, Position: domain.Position{Y: 300},
			Data: domain.NodeData{Title: "Bye {{.name}}"}},
	}
	return &domain.Module{
		ID:         CourseID,
		Title:      "Course",
		AccessType: domain.AccessPublic,
		Nodes:      nodes,
		Edges:      graph.DeriveEdges(nodes),
		CreatedAt:  Epoch,
		UpdatedAt:  Epoch,
	}
}

// CourseVariables are the variables of Course.
func CourseVariables() []domain.Variable {
	return []domain.Variable{
		{ID: "v-name", ModuleID: CourseID, Name: "name", VarType: domain.VarString, DefaultValue: "learner"},
		{ID: "v-score", ModuleID: CourseID, Name: "score", VarType: domain.VarNumber, DefaultValue: 0},
	}
}

// CourseConditions gate the Finish choice of pick on score > 5.
func CourseConditions() []domain.Condition {
	return []domain.Condition{{
		ID:               "c-finish",
		ModuleID:         CourseID,
		SourceNodeID:     "pick",
		TargetVariableID: "v-score",
		ConditionType:    domain.CondGreater,
		ConditionValue:   5,
		ActionType:       domain.ActionSetVariable,
		ActionValue:      "0",
		Priority:         1,
	}}
}

// CourseStores returns in-memory stores seeded with Course and its rules.
func CourseStores(t *testing.T) ports.Stores {
	t.Helper()
	stores := memory.NewStoresWithClock(Clock(), Course())
	SeedRules(t, stores)
	return stores
}

// SeedRules saves the Course variables and conditions.
func SeedRules(t *testing.T, stores ports.Stores) {
	t.Helper()
	ctx := context.Background()
	for _, v := range CourseVariables() {
		require.NoError(t, stores.Variables.SaveVariable(ctx, v))
	}
	for _, c := range CourseConditions() {
		require.NoError(t, stores.Conditions.SaveCondition(ctx, c))
	}
}

// WriteCourse writes Course with its rules as a YAML document into dir and returns
// the file path.
func WriteCourse(t *testing.T, dir string) string {
	t.Helper()
	doc := &file.Document{Module: Course(), Variables: CourseVariables(), Conditions: CourseConditions()}
	data, err := doc.Encode(".yaml")
	require.NoError(t, err)
	path := filepath.Join(dir, CourseID+".yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
