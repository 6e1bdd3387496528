package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/internal/runtime"
	"github.com/aretw0/pathway/pkg/domain"
)

func msg(id, next string) domain.Node {
	return domain.Node{ID: id, Type: domain.NodeTypeMessage, Data: domain.NodeData{NextNodeID: next}}
}

func routerNode(id string, overlay bool, targets ...string) domain.Node {
	n := domain.Node{ID: id, Type: domain.NodeTypeRouter, Data: domain.NodeData{IsOverlay: overlay}}
	for _, t := range targets {
		n.Data.Choices = append(n.Data.Choices, domain.Choice{Text: "to " + t, NextNodeID: t})
	}
	return n
}

type countingMedia struct{ paused int }

func (m *countingMedia) PauseAll() { m.paused++ }

func TestNavigator_ConcreteScenario(t *testing.T) {
	nodes := []domain.Node{
		msg("1", "2"),
		routerNode("2", false, "3", ""),
		msg("3", ""),
	}
	nav := runtime.NewNavigator()
	ctx := context.Background()

	cur := runtime.NewCursor("m", "u", nodes)
	if cur.CurrentNodeID != "1" {
		t.Fatalf("expected start on 1, got %q", cur.CurrentNodeID)
	}

	cur, out := nav.Next(ctx, nodes, cur)
	if out.Kind != runtime.OutcomeAdvanced || cur.CurrentNodeID != "2" {
		t.Fatalf("expected advance to 2, got %+v on %q", out, cur.CurrentNodeID)
	}

	cur, out, err := nav.Choose(ctx, nodes, cur, 0)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if cur.CurrentNodeID != "3" {
		t.Fatalf("expected node 3, got %q (%+v)", cur.CurrentNodeID, out)
	}

	cur, out = nav.Next(ctx, nodes, cur)
	if !cur.Completed || out.Kind != runtime.OutcomeCompleted {
		t.Errorf("expected completion, got %+v", out)
	}
	assert.Equal(t, []string{"1", "2", "3"}, cur.History)
}

func TestNavigator_OverlayRoundTrip(t *testing.T) {
	nodes := []domain.Node{
		msg("A", "B"),
		routerNode("B", true, "C", "A"),
		msg("C", ""),
	}
	media := &countingMedia{}
	nav := runtime.NewNavigator(runtime.WithMediaController(media))
	ctx := context.Background()

	cur := runtime.NewCursor("m", "u", nodes)
	cur = nav.Interact(cur)

	cur, out := nav.Next(ctx, nodes, cur)
	require.Equal(t, runtime.OutcomeOverlay, out.Kind)
	assert.Equal(t, "B", cur.OverlayNodeID)
	assert.Equal(t, "A", cur.CurrentNodeID)
	assert.Equal(t, 0, runtime.CurrentIndex(nodes, cur))
	assert.True(t, cur.HasInteracted, "opening an overlay keeps the current node's state")
	assert.Equal(t, 1, media.paused)
	assert.Equal(t, "B", runtime.OverlayNode(nodes, cur).ID)

	// Next is inert while the overlay is open.
	same, out := nav.Next(ctx, nodes, cur)
	assert.Equal(t, runtime.OutcomeNone, out.Kind)
	assert.Equal(t, cur, same)

	cur, _, err := nav.Choose(ctx, nodes, cur, 0)
	require.NoError(t, err)
	assert.Empty(t, cur.OverlayNodeID)
	assert.Equal(t, 2, runtime.CurrentIndex(nodes, cur))
	assert.False(t, cur.HasInteracted)
	assert.Equal(t, []string{"A", "B", "C"}, cur.History)
}

func TestNavigator_PreviousSkipsOverlay(t *testing.T) {
	nodes := []domain.Node{msg("A", "B"), routerNode("B", true, "C", "A"), msg("C", "")}
	nav := runtime.NewNavigator()
	ctx := context.Background()

	cur := &domain.Cursor{CurrentNodeID: "C", History: []string{"A", "B", "C"}, HasInteracted: true}
	cur, out := nav.Previous(ctx, nodes, cur)

	assert.Equal(t, runtime.OutcomeRetreated, out.Kind)
	assert.Equal(t, "A", cur.CurrentNodeID)
	assert.Equal(t, []string{"A"}, cur.History)
	assert.False(t, cur.HasInteracted)
}

func TestNavigator_PreviousDismissesOverlay(t *testing.T) {
	nodes := []domain.Node{msg("A", "B"), routerNode("B", true, "C", "A"), msg("C", "")}
	nav := runtime.NewNavigator()
	ctx := context.Background()

	cur, _ := nav.Next(ctx, nodes, runtime.NewCursor("m", "u", nodes))
	cur, out := nav.Previous(ctx, nodes, cur)

	assert.Equal(t, runtime.OutcomeRetreated, out.Kind)
	assert.Equal(t, "A", cur.CurrentNodeID)
	assert.False(t, cur.HasOverlay())
}

func TestNavigator_PreviousAtStartIsNoop(t *testing.T) {
	nodes := []domain.Node{msg("A", "")}
	nav := runtime.NewNavigator()

	cur := runtime.NewCursor("m", "u", nodes)
	got, out := nav.Previous(context.Background(), nodes, cur)
	assert.Equal(t, runtime.OutcomeNone, out.Kind)
	assert.Same(t, cur, got)
}

func TestNavigator_PreviousNeverPopsBelowOne(t *testing.T) {
	nodes := []domain.Node{routerNode("O", true, "A", "A"), msg("A", "")}
	nav := runtime.NewNavigator()

	// History made entirely of overlay entries but the last.
	cur := &domain.Cursor{CurrentNodeID: "A", History: []string{"O", "O2", "A"}}
	cur, _ = nav.Previous(context.Background(), nodes, cur)
	assert.Len(t, cur.History, 1)
	assert.Equal(t, "O", cur.CurrentNodeID)
}

func TestNavigator_PreviousFromCompleted(t *testing.T) {
	nodes := []domain.Node{msg("A", "B"), routerNode("B", true, "gone", "A")}
	nav := runtime.NewNavigator()
	ctx := context.Background()

	cur, _ := nav.Next(ctx, nodes, runtime.NewCursor("m", "u", nodes))
	cur, out, err := nav.Choose(ctx, nodes, cur, 0)
	require.NoError(t, err)
	require.Equal(t, runtime.OutcomeCompleted, out.Kind)

	cur, out = nav.Previous(ctx, nodes, cur)
	assert.Equal(t, runtime.OutcomeRetreated, out.Kind)
	assert.False(t, cur.Completed)
	assert.Equal(t, "A", cur.CurrentNodeID)
	assert.Equal(t, []string{"A"}, cur.History)
}

func TestNavigator_Termination(t *testing.T) {
	tests := []struct {
		name  string
		nodes []domain.Node
	}{
		{"Empty next", []domain.Node{msg("A", "")}},
		{"Unresolved next", []domain.Node{msg("A", "missing")}},
		{"Router has no next", []domain.Node{routerNode("A", false, "A", "A")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := runtime.NewNavigator()
			cur, out := nav.Next(context.Background(), tt.nodes, runtime.NewCursor("m", "u", tt.nodes))
			assert.Equal(t, runtime.OutcomeCompleted, out.Kind)
			assert.True(t, cur.Completed)

			// Completed is terminal for Next.
			_, out = nav.Next(context.Background(), tt.nodes, cur)
			assert.Equal(t, runtime.OutcomeNone, out.Kind)
		})
	}

	t.Run("Current node vanished", func(t *testing.T) {
		nav := runtime.NewNavigator()
		cur, out := nav.Next(context.Background(), nil, &domain.Cursor{CurrentNodeID: "x", History: []string{"x"}})
		assert.Equal(t, runtime.OutcomeCompleted, out.Kind)
		assert.True(t, cur.Completed)
	})

	t.Run("Empty module starts completed", func(t *testing.T) {
		cur := runtime.NewCursor("m", "u", nil)
		assert.True(t, cur.Completed)
	})
}

func TestNavigator_ChooseErrorsLeaveStateUntouched(t *testing.T) {
	nodes := []domain.Node{msg("A", "R"), routerNode("R", false, "A", ""), msg("Z", "")}
	nav := runtime.NewNavigator()
	ctx := context.Background()

	start := runtime.NewCursor("m", "u", nodes)
	got, _, err := nav.Choose(ctx, nodes, start, 0)
	assert.ErrorIs(t, err, domain.ErrNoActiveRouter)
	assert.Same(t, start, got)

	atRouter, _ := nav.Next(ctx, nodes, start)
	for _, idx := range []int{-1, 1, 5} {
		got, out, err := nav.Choose(ctx, nodes, atRouter, idx)
		assert.ErrorIs(t, err, domain.ErrChoiceNotFound, "choice %d", idx)
		assert.Equal(t, runtime.OutcomeNone, out.Kind)
		assert.Same(t, atRouter, got)
	}
}

func TestNavigator_ChoiceGuard(t *testing.T) {
	nodes := []domain.Node{routerNode("R", false, "A", "B"), msg("A", ""), msg("B", "")}
	deny := func(router domain.Node, index int) bool { return index != 1 }
	ctx := context.Background()
	cur := runtime.NewCursor("m", "u", nodes)

	soft := runtime.NewNavigator()
	got, _, err := soft.ChooseGuarded(ctx, nodes, cur, 1, deny)
	require.NoError(t, err)
	assert.Equal(t, "B", got.CurrentNodeID)

	strict := runtime.NewNavigator(runtime.WithStrictChoices(true))
	got, _, err = strict.ChooseGuarded(ctx, nodes, cur, 1, deny)
	assert.True(t, errors.Is(err, domain.ErrChoiceBlocked))
	assert.Same(t, cur, got)

	got, _, err = strict.ChooseGuarded(ctx, nodes, cur, 0, deny)
	require.NoError(t, err)
	assert.Equal(t, "A", got.CurrentNodeID)
}

func TestNavigator_DoesNotMutateInput(t *testing.T) {
	nodes := []domain.Node{msg("A", "B"), msg("B", "")}
	nav := runtime.NewNavigator()

	cur := runtime.NewCursor("m", "u", nodes)
	snapshot := cur.Clone()
	_, _ = nav.Next(context.Background(), nodes, cur)

	assert.Equal(t, snapshot, cur)
}

func TestNavigator_LifecycleHooks(t *testing.T) {
	nodes := []domain.Node{msg("A", "B"), routerNode("B", true, "C", "A"), msg("C", "")}

	var entered, left, overlays []string
	var completed []string
	hooks := domain.LifecycleHooks{
		OnNodeEnter:   func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnNodeLeave:   func(_ context.Context, e *domain.NodeEvent) { left = append(left, e.NodeID) },
		OnOverlayOpen: func(_ context.Context, e *domain.NodeEvent) { overlays = append(overlays, e.NodeID) },
		OnCompleted:   func(_ context.Context, e *domain.CompletionEvent) { completed = append(completed, e.LastNodeID) },
	}
	nav := runtime.NewNavigator(runtime.WithLifecycleHooks(hooks))
	ctx := context.Background()

	cur := nav.Begin(ctx, "m", "u", nodes)
	cur, _ = nav.Next(ctx, nodes, cur)
	cur, _, _ = nav.Choose(ctx, nodes, cur, 0)
	_, _ = nav.Next(ctx, nodes, cur)

	assert.Equal(t, []string{"A", "C"}, entered)
	assert.Equal(t, []string{"A"}, left)
	assert.Equal(t, []string{"B"}, overlays)
	assert.Equal(t, []string{"C"}, completed)
}

func TestActiveRouter(t *testing.T) {
	nodes := []domain.Node{msg("A", ""), routerNode("R", false, "A", "A")}

	assert.Nil(t, runtime.ActiveRouter(nodes, &domain.Cursor{CurrentNodeID: "A"}))
	assert.Equal(t, "R", runtime.ActiveRouter(nodes, &domain.Cursor{CurrentNodeID: "R"}).ID)
	assert.Equal(t, "R", runtime.ActiveRouter(nodes, &domain.Cursor{CurrentNodeID: "A", OverlayNodeID: "R"}).ID)
	assert.Nil(t, runtime.ActiveRouter(nodes, &domain.Cursor{CurrentNodeID: "R", Completed: true}))
}
