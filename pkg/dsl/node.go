package dsl

import "github.com/aretw0/pathway/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
	placed  bool
}

// Message marks the node as a message node with the given title.
func (n *NodeBuilder) Message(title string) *NodeBuilder {
	n.node.Type = domain.NodeTypeMessage
	n.node.Data.Title = title
	return n
}

// Content sets the Markdown body of the node.
func (n *NodeBuilder) Content(markdown string) *NodeBuilder {
	n.node.Data.Content = markdown
	return n
}

// Video marks the node as a video node playing url.
func (n *NodeBuilder) Video(title, url string) *NodeBuilder {
	n.node.Type = domain.NodeTypeVideo
	n.node.Data.Title = title
	n.node.Data.VideoURL = url
	n.node.Data.ShowPlayPause = true
	n.node.Data.ShowVolume = true
	n.node.Data.ShowSeeking = true
	return n
}

// Autoplay starts the video as soon as the node is shown.
func (n *NodeBuilder) Autoplay() *NodeBuilder {
	n.node.Data.Autoplay = true
	return n
}

// TextInput marks the node as a free text question.
func (n *NodeBuilder) TextInput(question string) *NodeBuilder {
	n.node.Type = domain.NodeTypeTextInput
	n.node.Data.Question = question
	return n
}

// MultipleChoice marks the node as a question answered from options.
func (n *NodeBuilder) MultipleChoice(question string, options ...string) *NodeBuilder {
	n.node.Type = domain.NodeTypeMultipleChoice
	n.node.Data.Question = question
	n.node.Data.Options = options
	return n
}

// Ranking marks the node as a question answered by ordering options.
func (n *NodeBuilder) Ranking(question string, options ...string) *NodeBuilder {
	n.node.Type = domain.NodeTypeRanking
	n.node.Data.Question = question
	n.node.Data.Options = options
	return n
}

// Required makes the question block Next until it is answered.
func (n *NodeBuilder) Required() *NodeBuilder {
	n.node.Data.IsRequired = true
	return n
}

// AllowMultiple lets a multiple choice question take several options.
func (n *NodeBuilder) AllowMultiple() *NodeBuilder {
	n.node.Data.AllowMultiple = true
	return n
}

// Instructions sets the hint shown under a question.
func (n *NodeBuilder) Instructions(text string) *NodeBuilder {
	n.node.Data.Instructions = text
	return n
}

// Router marks the node as a router asking question. Add branches with Choice.
func (n *NodeBuilder) Router(question string) *NodeBuilder {
	n.node.Type = domain.NodeTypeRouter
	n.node.Data.Question = question
	n.node.Data.NextNodeID = ""
	return n
}

// Overlay shows the router on top of the node that leads to it.
func (n *NodeBuilder) Overlay() *NodeBuilder {
	n.node.Data.IsOverlay = true
	return n
}

// Choice appends a router branch.
func (n *NodeBuilder) Choice(text, nextNodeID string) *NodeBuilder {
	n.node.Data.Choices = append(n.node.Data.Choices, domain.Choice{Text: text, NextNodeID: nextNodeID})
	return n
}

// Then sets the node that follows a non-router node.
func (n *NodeBuilder) Then(nextNodeID string) *NodeBuilder {
	n.node.Data.NextNodeID = nextNodeID
	return n
}

// At places the node on the editor canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	n.placed = true
	return n
}

// Add starts the next node, for chaining.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}
