package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/internal/presentation/tui"
	"github.com/aretw0/pathway/internal/runtime"
	"github.com/aretw0/pathway/pkg/domain"
)

// Player drives a playback session from line-based input.
//
// Commands: an empty line advances, a number picks a router choice (1-based),
// "b" goes back, "r" restarts and "q" quits. Any other text answers the current
// question. Multiple choice and ranking answers are comma separated option numbers
// or texts.
type Player struct {
	engine *pathway.Engine
	in     io.Reader
	out    io.Writer
	render func(string) (string, error)
	logger *slog.Logger
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithRenderer sets the markdown renderer for node text.
func WithRenderer(render func(string) (string, error)) PlayerOption {
	return func(p *Player) {
		p.render = render
	}
}

// WithPlayerLogger sets the logger for playback errors.
func WithPlayerLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) {
		p.logger = logger
	}
}

// NewPlayer creates a Player reading commands from in and writing to out.
func NewPlayer(engine *pathway.Engine, in io.Reader, out io.Writer, opts ...PlayerOption) *Player {
	p := &Player{
		engine: engine,
		in:     in,
		out:    out,
		render: tui.PlainRenderer,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run plays moduleID for userID until the module completes, the learner quits, input
// ends or ctx is cancelled. Quitting and completing return nil.
func (p *Player) Run(ctx context.Context, moduleID, userID string) error {
	lines := readLines(ctx, p.in)

	pb, err := p.engine.Start(ctx, moduleID, userID)
	if err != nil {
		return err
	}
	p.show(pb)

	for {
		if pb.Completed {
			printSystemMessage(p.out, "Module '%s' completed.", moduleID)
			return nil
		}
		p.prompt(pb)

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return io.EOF
			}
			line = strings.TrimSpace(l)
		}

		next, quit, err := p.dispatch(ctx, pb, moduleID, userID, line)
		if quit {
			printSystemMessage(p.out, "Stopped at '%s' node.", pb.Cursor.CurrentNodeID)
			return nil
		}
		if err != nil {
			var perr *pathway.PersistenceError
			switch {
			case errors.As(err, &perr):
				p.logger.WarnContext(ctx, "playback persisted partially", "module_id", moduleID, "err", err)
				printSystemMessage(p.out, "Warning: %v", err)
			case isLearnerError(err):
				printSystemMessage(p.out, "%v", err)
				continue
			default:
				return err
			}
		}
		if next == nil {
			continue
		}
		if next.Outcome.Kind != runtime.OutcomeNone || (next.Diff != nil && next.Diff.CurrentNodeID != nil) {
			p.show(next)
		}
		pb = next
	}
}

func (p *Player) dispatch(ctx context.Context, pb *pathway.Playback, moduleID, userID, line string) (*pathway.Playback, bool, error) {
	switch strings.ToLower(line) {
	case "q", "quit", "exit":
		return nil, true, nil
	case "b", "back":
		pb, err := p.engine.Previous(ctx, moduleID, userID)
		return pb, false, err
	case "r", "restart":
		pb, err := p.engine.Restart(ctx, moduleID, userID)
		return pb, false, err
	case "":
		if pb.Router() != nil {
			return nil, false, fmt.Errorf("%w: pick a choice by number", domain.ErrNoActiveRouter)
		}
		pb, err := p.engine.Next(ctx, moduleID, userID)
		return pb, false, err
	}

	if pb.Router() != nil {
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %q is not a choice number", domain.ErrChoiceNotFound, line)
		}
		pb, err := p.engine.Choose(ctx, moduleID, userID, n-1)
		return pb, false, err
	}

	answer := parseAnswer(pb.Node, line)
	pb, err := p.engine.Interact(ctx, moduleID, userID, pathway.Interaction{Answer: answer})
	return pb, false, err
}

// parseAnswer maps comma separated option numbers of list questions to option texts.
func parseAnswer(node *domain.Node, line string) any {
	if node == nil {
		return line
	}
	switch {
	case node.Type == domain.NodeTypeRanking,
		node.Type == domain.NodeTypeMultipleChoice && node.Data.AllowMultiple:
		var out []string
		for _, part := range strings.Split(line, ",") {
			out = append(out, optionText(node.Data.Options, strings.TrimSpace(part)))
		}
		return out
	case node.Type == domain.NodeTypeMultipleChoice:
		return optionText(node.Data.Options, line)
	}
	return line
}

func optionText(options []string, token string) string {
	if i, err := strconv.Atoi(token); err == nil && i >= 1 && i <= len(options) {
		return options[i-1]
	}
	return token
}

func isLearnerError(err error) bool {
	for _, target := range []error{
		domain.ErrAnswerRequired,
		domain.ErrInvalidAnswer,
		domain.ErrChoiceBlocked,
		domain.ErrChoiceNotFound,
		domain.ErrNoActiveRouter,
		domain.ErrChoiceRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (p *Player) show(pb *pathway.Playback) {
	if pb.Completed {
		return
	}
	if pb.Node != nil && pb.Outcome.Kind != runtime.OutcomeOverlay {
		p.write(nodeMarkdown(pb.Node))
	}
	if pb.Overlay != nil {
		p.write(nodeMarkdown(pb.Overlay))
	}
}

func (p *Player) prompt(pb *pathway.Playback) {
	if router := pb.Router(); router != nil {
		for i, c := range router.Data.Choices {
			mark := ""
			if i < len(pb.ChoiceValidity) && !pb.ChoiceValidity[i] {
				mark = " (locked)"
			}
			fmt.Fprintf(p.out, "  %d) %s%s\n", i+1, c.Text, mark)
		}
		fmt.Fprint(p.out, "choice> ")
		return
	}
	if pb.Node != nil && pb.Node.Type.Interactive() && !pb.Cursor.HasInteracted {
		fmt.Fprint(p.out, "answer> ")
		return
	}
	fmt.Fprint(p.out, "[enter] next, b back, r restart, q quit> ")
}

func (p *Player) write(markdown string) {
	out, err := p.render(markdown)
	if err != nil {
		p.logger.Warn("markdown rendering failed", "err", err)
		out = markdown
	}
	fmt.Fprintln(p.out, strings.TrimRight(out, "\n"))
}

// nodeMarkdown lays out the learner-facing text of a node.
func nodeMarkdown(n *domain.Node) string {
	var sb strings.Builder
	if n.Data.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", n.Data.Title)
	}
	if n.Data.Content != "" {
		fmt.Fprintf(&sb, "%s\n\n", n.Data.Content)
	}
	if n.Data.VideoURL != "" {
		fmt.Fprintf(&sb, "Video: %s\n\n", n.Data.VideoURL)
	}
	if n.Data.Question != "" {
		fmt.Fprintf(&sb, "**%s**\n\n", n.Data.Question)
	}
	if n.Data.Instructions != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", n.Data.Instructions)
	}
	for i, o := range n.Data.Options {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, o)
	}
	return sb.String()
}

// readLines pumps lines from r until it ends or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
