/*
Package domain contains the core models of the Pathway learning-module engine.

It defines the module graph (Nodes, Edges, Modules), the authoring rules that gate router
choices (Variables, Conditions) and the learner-side records (LearnerState, Progress,
Completion, Cursor). This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Node: A unit of content or decision. Its Data carries the node-embedded routing
    (NextNodeID, Choices) which is the canonical source of truth for the graph shape.
  - Edge: A derived, rendering-oriented projection of node routing.
  - Cursor: The per-learner navigation position (current node, overlay, history stack).
  - LearnerState: Variable values and the interaction log of one learner in one module.
*/
package domain
