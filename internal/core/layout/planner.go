// Package layout computes suggested coordinates and anchor indices for new
// flowchart elements. Every function is pure.
package layout

import "github.com/flowgraph/flowchart/internal/core/graph"

const (
	// spacingFactor is the parent-to-child distance in node sizes.
	spacingFactor = 4
	// branchOffset separates the two outcomes of a branch on the cross axis.
	branchOffset = 200
)

// NextPosition suggests where a node following info should be drawn.
// Missing coordinates count as 0 and a missing size as the default size.
func NextPosition(dir graph.Direction, info graph.NodeInfo) graph.Point {
	x, y, size := 0.0, 0.0, graph.DefaultNodeSize
	if info.X != nil {
		x = *info.X
	}
	if info.Y != nil {
		y = *info.Y
	}
	if info.Size != nil {
		size = *info.Size
	}
	if dir == graph.DirectionHorizontal {
		return graph.Point{X: x + size*spacingFactor, Y: y}
	}
	return graph.Point{X: x, Y: y + size*spacingFactor}
}

// RebackAnchor picks the anchor a backflow edge should leave from so it is
// routed around the primary axis. Horizontal flows compare y: bottom when the
// source sits after the target, top otherwise. Vertical flows compare x:
// right when after, left otherwise.
func RebackAnchor(dir graph.Direction, source, target graph.Point) int {
	if dir == graph.DirectionHorizontal {
		if source.Y > target.Y {
			return graph.AnchorBottom
		}
		return graph.AnchorTop
	}
	if source.X > target.X {
		return graph.AnchorRight
	}
	return graph.AnchorLeft
}

// RebackEdgeAnchor is the single anchor index used on both ends of a newly
// drawn backflow edge.
func RebackEdgeAnchor(dir graph.Direction) int {
	if dir == graph.DirectionHorizontal {
		return graph.AnchorTop
	}
	return graph.AnchorLeft
}

// BranchPositions places the two outcome nodes of a branch one step past
// target, split along the cross axis.
func BranchPositions(dir graph.Direction, target graph.NodeInfo) (on, off graph.Point) {
	child := NextPosition(dir, target)
	if dir == graph.DirectionHorizontal {
		return graph.Point{X: child.X, Y: child.Y - branchOffset},
			graph.Point{X: child.X, Y: child.Y + branchOffset}
	}
	return graph.Point{X: child.X + branchOffset, Y: child.Y},
		graph.Point{X: child.X - branchOffset, Y: child.Y}
}

// BranchAnchors returns the source-side anchors of the on and off branch
// edges and the anchor they share on the branch node side.
func BranchAnchors(dir graph.Direction) (onSource, offSource, target int) {
	if dir == graph.DirectionHorizontal {
		return graph.AnchorTop, graph.AnchorBottom, graph.AnchorLeft
	}
	return graph.AnchorRight, graph.AnchorLeft, graph.AnchorTop
}
