// Package flowchart is the public façade of the flowchart authoring core. It
// re-exports the core graph types and exposes a Controller that mutates a
// diagram through a rendering engine while keeping a bounded undo/redo log
// of every completed action.
package flowchart
