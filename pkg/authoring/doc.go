// Package authoring implements the editor side of a module: a Session that owns the
// live node and edge collections, a linear undo/redo History of node snapshots, and a
// Clipboard for copying and pasting node selections.
//
// A Session is owned by a single editor and is not safe for concurrent use.
package authoring
