// Package graph keeps a module's node graph well formed.
//
// It offers two families of operations:
//
//   - Validation: ValidateModuleGraph reports structural problems (dangling
//     targets, routers with too few choices, duplicate ids) without repairing
//     anything, and ValidateForPublish adds the stricter checks a module must
//     pass before learners can play it.
//   - Maintenance: Updater.OnNodeUpdate applies an editor patch to a node and
//     reconciles the edge projection of that node, and DeriveEdges recomputes
//     every edge from node data.
//
// Node data (NextNodeID and router choices) is the source of truth. Edges are
// a rendering artifact that can always be rebuilt from the nodes.
package graph
