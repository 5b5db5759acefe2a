package graph

// EventType names an interaction event emitted by the engine.
type EventType string

// Node interaction events.
const (
	EventNodeClick       EventType = "node:click"
	EventNodeDblClick    EventType = "node:dblclick"
	EventNodeMouseOver   EventType = "node:mouseover"
	EventNodeMouseLeave  EventType = "node:mouseleave"
	EventNodeContextMenu EventType = "node:contextmenu"
	EventNodeDragStart   EventType = "node:dragstart"
	EventNodeDragEnd     EventType = "node:dragend"
	EventNodeDrop        EventType = "node:drop"
)

// Event is an interaction reported by the engine. ItemID is empty when the
// event is not attached to a node; X and Y are the item position.
type Event struct {
	Type   EventType
	ItemID string
	X      float64
	Y      float64
}

// Handler reacts to an engine event.
type Handler func(Event)

// Engine is the rendering engine owning node/edge storage, layout and
// drawing. The flowchart core only ever talks to it through this interface
// PRINCIPLES:
// - DIP: Core depends on the interface, adapters implement it
// - ISP: Only the primitives the controller needs
type Engine interface {
	// AddNode inserts a node; the id must be unused.
	AddNode(n *Node) error
	// AddEdge inserts an edge between two existing nodes.
	AddEdge(e *Edge) error
	// UpdateNode replaces the stored record with the same id.
	UpdateNode(n *Node) error
	// RemoveItem removes a node or an edge by id. Removing a node also
	// removes every edge touching it.
	RemoveItem(id string) error

	// FindNode returns a copy of the stored node.
	FindNode(id string) (*Node, bool)
	// FindEdge returns a copy of the stored edge.
	FindEdge(id string) (*Edge, bool)
	// Save returns a copy of the full node/edge set.
	Save() *Data
	// ChangeData replaces the full node/edge set.
	ChangeData(d *Data) error
	// Clear removes every node and edge.
	Clear() error
	// Destroy releases the engine; later calls fail.
	Destroy() error
	// ChangeSize resizes the canvas.
	ChangeSize(width, height int) error

	// On subscribes a handler to an event type.
	On(t EventType, h Handler)
	// AllSimplePaths returns every simple directed path from one node to
	// another, each as an ordered list of node ids including both ends.
	AllSimplePaths(from, to string) [][]string
}
