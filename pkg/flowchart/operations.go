package flowchart

import (
	"fmt"

	coregraph "github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/internal/core/history"
	"github.com/flowgraph/flowchart/internal/core/layout"
)

// RelationMode selects what AddRelation builds.
type RelationMode string

const (
	// ModeSingle joins source to one target.
	ModeSingle RelationMode = "single"
	// ModeBranch adds a target with two mutually exclusive outcomes.
	ModeBranch RelationMode = "branch"
	// ModeMulti is accepted as an alias of ModeBranch.
	ModeMulti RelationMode = "multi"
)

// ParseRelationMode maps user input to a mode. Empty means single.
func ParseRelationMode(s string) (RelationMode, error) {
	switch RelationMode(s) {
	case "", ModeSingle:
		return ModeSingle, nil
	case ModeBranch, ModeMulti:
		return ModeBranch, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// CreateNode adds a free node built from info with defaults applied.
func (c *Controller) CreateNode(info NodeInfo) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if info.ID == "" {
		return fmt.Errorf("create node: %w", ErrInvalidNodeID)
	}
	node := coregraph.NewNode(info)

	t := c.begin("createNode")
	if err := t.addNode(node); err != nil {
		t.fail(node.ID, err)
		return nil
	}
	c.addFree(node.ID)
	c.record(&history.CreateSnapshot{Node: node})
	return nil
}

// AddRelation connects source to target. When no node with the target id
// exists a new one is placed one step past source; an empty target id is
// generated. Branch mode also creates two outcome nodes joined to the target
// with mutex edges, and requires the target to be new.
func (c *Controller) AddRelation(source, target NodeInfo, mode RelationMode) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	mode, err := ParseRelationMode(string(mode))
	if err != nil {
		return err
	}
	if source.ID == "" {
		return fmt.Errorf("add relation: source: %w", ErrInvalidNodeID)
	}
	stored, ok := c.engine.FindNode(source.ID)
	if !ok {
		return fmt.Errorf("add relation: source %s: %w", source.ID, ErrNodeNotFound)
	}
	src := fillPlacement(source, stored)

	data := c.engine.Save()
	ids := newIDSet(data)
	dir := c.Direction()

	if target.ID != "" {
		if _, exists := c.engine.FindNode(target.ID); exists {
			if mode == ModeBranch {
				return fmt.Errorf("add relation: target %s: %w", target.ID, ErrBranchTargetExists)
			}
			return c.linkExisting(src.ID, target.ID, ids.next("edge", len(data.Edges)+1))
		}
	}

	targetID := target.ID
	if !ids.claim(targetID) {
		targetID = ids.next("node", len(data.Nodes)+1)
	}
	node := c.relationNode(target, targetID, layout.NextPosition(dir, src))
	edge := &Edge{
		ID:     ids.next("edge", len(data.Edges)+1),
		Source: src.ID,
		Target: targetID,
		Type:   coregraph.EdgeTypeLine,
	}

	if mode != ModeBranch {
		t := c.begin("addRelation")
		if err := t.addNode(node); err != nil {
			t.fail(node.ID, err)
			return nil
		}
		if err := t.addEdge(edge); err != nil {
			t.fail(edge.ID, err)
			return nil
		}
		c.record(&history.CreateRelationSnapshot{Source: src, Target: node, Edge: edge})
		return nil
	}

	branchID := func(suffix string) string {
		if target.ID != "" && ids.claim(target.ID+suffix) {
			return target.ID + suffix
		}
		return ids.next("node", len(data.Nodes)+1)
	}
	branchInfo := func(suffix string) NodeInfo {
		info := target
		if target.Label != nil {
			info.Label = String(*target.Label + suffix)
		}
		info.Size = Float(node.Size)
		return info
	}

	onPos, offPos := layout.BranchPositions(dir, coregraph.InfoOf(node))
	onAnchor, offAnchor, branchAnchor := layout.BranchAnchors(dir)

	onID := branchID("1")
	offID := branchID("2")
	onNode := c.relationNode(branchInfo("1"), onID, onPos)
	offNode := c.relationNode(branchInfo("2"), offID, offPos)
	onEdge := &Edge{
		ID:           ids.next("edge", len(data.Edges)+1),
		Source:       targetID,
		Target:       onID,
		Type:         coregraph.MutexEdgeType(dir),
		SourceAnchor: coregraph.Anchor(onAnchor),
		TargetAnchor: coregraph.Anchor(branchAnchor),
	}
	offEdge := &Edge{
		ID:           ids.next("edge", len(data.Edges)+1),
		Source:       targetID,
		Target:       offID,
		Type:         coregraph.MutexEdgeType(dir),
		SourceAnchor: coregraph.Anchor(offAnchor),
		TargetAnchor: coregraph.Anchor(branchAnchor),
	}

	t := c.begin("multiNode")
	for _, step := range []func() error{
		func() error { return t.addNode(node) },
		func() error { return t.addEdge(edge) },
		func() error { return t.addNode(onNode) },
		func() error { return t.addNode(offNode) },
		func() error { return t.addEdge(onEdge) },
		func() error { return t.addEdge(offEdge) },
	} {
		if err := step(); err != nil {
			t.fail(targetID, err)
			return nil
		}
	}
	c.record(&history.MultiNodeSnapshot{
		Source:  src,
		Target:  node,
		Edge:    edge,
		OnNode:  onNode,
		OnEdge:  onEdge,
		OffNode: offNode,
		OffEdge: offEdge,
	})
	return nil
}

func (c *Controller) linkExisting(sourceID, targetID, edgeID string) error {
	edge := &Edge{ID: edgeID, Source: sourceID, Target: targetID, Type: coregraph.EdgeTypeLine}
	t := c.begin("addRelation")
	if err := t.addEdge(edge); err != nil {
		t.fail(edge.ID, err)
		return nil
	}
	c.record(&history.AddRelationSnapshot{Edge: edge})
	return nil
}

// relationNode builds a node at the planned pos. Coordinates in info are
// ignored. The label font scales with the node size.
func (c *Controller) relationNode(info NodeInfo, id string, pos coregraph.Point) *Node {
	info.ID = id
	info.X, info.Y = Float(pos.X), Float(pos.Y)
	n := coregraph.NewNode(info)
	if n.Style == nil {
		n.Style = map[string]interface{}{}
	}
	if _, ok := n.Style["fontSize"]; !ok {
		n.Style["fontSize"] = n.Size / 5
	}
	return n
}

// fillPlacement completes the coordinates and size a caller left out with
// the stored values.
func fillPlacement(info NodeInfo, stored *Node) NodeInfo {
	if info.X == nil {
		info.X = Float(stored.X)
	}
	if info.Y == nil {
		info.Y = Float(stored.Y)
	}
	if info.Size == nil {
		info.Size = Float(stored.Size)
	}
	return info
}

// UpdateNode merges the set fields of info into the stored node.
func (c *Controller) UpdateNode(info NodeInfo) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if info.ID == "" {
		return fmt.Errorf("update node: %w", ErrInvalidNodeID)
	}
	before, ok := c.engine.FindNode(info.ID)
	if !ok {
		return fmt.Errorf("update node %s: %w", info.ID, ErrNodeNotFound)
	}
	after := before.Merge(info)

	t := c.begin("updateNode")
	if err := t.updateNode(after, before); err != nil {
		t.fail(info.ID, err)
		return nil
	}
	c.record(&history.UpdateSnapshot{Before: before, After: after})
	return nil
}

// DeleteNode removes a node and every edge touching it.
func (c *Controller) DeleteNode(id string) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	node, ok := c.engine.FindNode(id)
	if !ok {
		return fmt.Errorf("delete node %s: %w", id, ErrNodeNotFound)
	}
	edges := c.engine.Save().IncidentEdges(id)

	t := c.begin("deleteNode")
	if err := t.removeNode(id); err != nil {
		t.fail(id, err)
		return nil
	}
	c.record(&history.DeleteSnapshot{Node: node, Edges: edges})
	return nil
}

// AddReback draws a backflow edge from source to target and records target
// as the source's reback. A previous backflow edge of source is removed
// first, so a source never has more than one.
func (c *Controller) AddReback(sourceID, targetID string) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if sourceID == targetID {
		return fmt.Errorf("add reback %s: %w", sourceID, ErrSelfLoop)
	}
	src, ok := c.engine.FindNode(sourceID)
	if !ok {
		return fmt.Errorf("add reback: source %s: %w", sourceID, ErrNodeNotFound)
	}
	if _, ok := c.engine.FindNode(targetID); !ok {
		return fmt.Errorf("add reback: target %s: %w", targetID, ErrNodeNotFound)
	}

	data := c.engine.Save()
	var replaced *Edge
	if src.Reback != nil {
		replaced = rebackEdge(data, sourceID, src.Reback.ID)
	}
	dir := c.Direction()
	anchor := layout.RebackEdgeAnchor(dir)
	edge := &Edge{
		ID:           newIDSet(data).next("edge", len(data.Edges)+1),
		Source:       sourceID,
		Target:       targetID,
		Type:         coregraph.RebackEdgeType(dir),
		SourceAnchor: coregraph.Anchor(anchor),
		TargetAnchor: coregraph.Anchor(anchor),
	}
	after := src.Clone()
	after.Reback = &coregraph.Reback{ID: targetID}

	t := c.begin("addReback")
	if replaced != nil {
		if err := t.removeEdge(replaced); err != nil {
			t.fail(sourceID, err)
			return nil
		}
	}
	if err := t.addEdge(edge); err != nil {
		t.fail(sourceID, err)
		return nil
	}
	if err := t.updateNode(after, src); err != nil {
		t.fail(sourceID, err)
		return nil
	}
	c.record(&history.AddRebackSnapshot{Edge: edge, Source: after, Before: src, Replaced: replaced})
	return nil
}

// rebackEdge finds the backflow edge drawn from source to target.
func rebackEdge(d *Data, source, target string) *Edge {
	for _, e := range d.Edges {
		if e.Source == source && e.Target == target && e.IsReback() {
			return e
		}
	}
	return nil
}

// RebackAnchor suggests the anchor a backflow edge from source to target
// should leave from, given where both nodes sit.
func (c *Controller) RebackAnchor(sourceID, targetID string) (int, error) {
	if err := c.requireReady(); err != nil {
		return 0, err
	}
	src, ok := c.engine.FindNode(sourceID)
	if !ok {
		return 0, fmt.Errorf("reback anchor: source %s: %w", sourceID, ErrNodeNotFound)
	}
	dst, ok := c.engine.FindNode(targetID)
	if !ok {
		return 0, fmt.Errorf("reback anchor: target %s: %w", targetID, ErrNodeNotFound)
	}
	return layout.RebackAnchor(c.Direction(), src.Position(), dst.Position()), nil
}

// GetRebackNodes returns the nodes that lie on some path from a free node to
// id, id excluded, in path order without duplicates. These are the nodes
// that may flow back into id. A free node has none.
func (c *Controller) GetRebackNodes(id string) ([]*Node, error) {
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	if c.isFree(id) {
		return []*Node{}, nil
	}
	if _, ok := c.engine.FindNode(id); !ok {
		return nil, fmt.Errorf("reback nodes %s: %w", id, ErrNodeNotFound)
	}

	seen := map[string]bool{id: true}
	out := []*Node{}
	for _, root := range c.freeNodes {
		for _, path := range c.engine.AllSimplePaths(root, id) {
			for _, nid := range path {
				if seen[nid] {
					continue
				}
				seen[nid] = true
				if n, ok := c.engine.FindNode(nid); ok {
					out = append(out, n)
				}
			}
		}
	}
	return out, nil
}

// Clean removes every node and edge. The prior node/edge set is kept in
// serialized form so the action can be undone.
func (c *Controller) Clean() error {
	if err := c.requireReady(); err != nil {
		return err
	}
	data := c.engine.Save()
	blob, err := c.serializer.Marshal(data)
	if err != nil {
		c.absorb("clear", "", fmt.Errorf("serialize diagram: %w", err))
		return nil
	}
	if err := c.engine.Clear(); err != nil {
		c.absorb("clear", "", err)
		return nil
	}
	c.record(&history.ClearSnapshot{Data: blob, Nodes: len(data.Nodes), Edges: len(data.Edges)})
	return nil
}
