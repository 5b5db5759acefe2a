package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode_Defaults(t *testing.T) {
	n := NewNode(NodeInfo{ID: "n1"})

	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, DefaultNodeType, n.Type)
	assert.Equal(t, 100.0, n.X)
	assert.Equal(t, 100.0, n.Y)
	assert.Equal(t, 100.0, n.Size)
	assert.Equal(t, DefaultAnchorPoints(), n.AnchorPoints)
	assert.Equal(t, "", n.Label)
	assert.NotNil(t, n.Extra)
	assert.Nil(t, n.Reback)
}

func TestNewNode_ExplicitZeroIsKept(t *testing.T) {
	n := NewNode(NodeInfo{ID: "n1", X: Float(0), Y: Float(0), Size: Float(50), Label: String("start")})

	assert.Equal(t, 0.0, n.X)
	assert.Equal(t, 0.0, n.Y)
	assert.Equal(t, 50.0, n.Size)
	assert.Equal(t, "start", n.Label)
}

func TestNode_Clone(t *testing.T) {
	n := &Node{
		ID:     "n1",
		Style:  map[string]interface{}{"fill": "#fff"},
		Extra:  map[string]interface{}{"owner": "ops"},
		Reback: &Reback{ID: "n0"},
	}
	c := n.Clone()
	c.Style["fill"] = "#000"
	c.Reback.ID = "other"

	assert.Equal(t, "#fff", n.Style["fill"])
	assert.Equal(t, "n0", n.Reback.ID)
	assert.Nil(t, (*Node)(nil).Clone())
}

func TestNode_Merge(t *testing.T) {
	n := NewNode(NodeInfo{ID: "n1", Style: map[string]interface{}{"fill": "#fff", "stroke": "#111"}})
	m := n.Merge(NodeInfo{X: Float(300), Label: String("renamed"), Style: map[string]interface{}{"fill": "#000"}})

	assert.Equal(t, 300.0, m.X)
	assert.Equal(t, 100.0, m.Y)
	assert.Equal(t, "renamed", m.Label)
	assert.Equal(t, "#000", m.Style["fill"])
	assert.Equal(t, "#111", m.Style["stroke"])
	// original untouched
	assert.Equal(t, 100.0, n.X)
	assert.Equal(t, "#fff", n.Style["fill"])
}

func TestNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr error
	}{
		{name: "valid node", node: &Node{ID: "n1"}},
		{name: "missing ID", node: &Node{}, wantErr: ErrInvalidNodeID},
		{name: "reback to itself", node: &Node{ID: "n1", Reback: &Reback{ID: "n1"}}, wantErr: ErrSelfLoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEdge_Validate(t *testing.T) {
	tests := []struct {
		name    string
		edge    *Edge
		wantErr error
	}{
		{name: "valid edge", edge: &Edge{ID: "e1", Source: "n1", Target: "n2"}},
		{name: "missing id", edge: &Edge{Source: "n1", Target: "n2"}, wantErr: ErrInvalidEdgeID},
		{name: "missing source", edge: &Edge{ID: "e1", Target: "n2"}, wantErr: ErrInvalidSource},
		{name: "missing target", edge: &Edge{ID: "e1", Source: "n1"}, wantErr: ErrInvalidTarget},
		{name: "self loop", edge: &Edge{ID: "e1", Source: "n1", Target: "n1"}, wantErr: ErrSelfLoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edge.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEdge_Variants(t *testing.T) {
	tests := []struct {
		name       string
		edgeType   EdgeType
		wantMutex  bool
		wantReback bool
	}{
		{name: "plain", edgeType: EdgeTypeLine},
		{name: "mutex horizontal", edgeType: MutexEdgeType(DirectionHorizontal), wantMutex: true},
		{name: "mutex vertical", edgeType: MutexEdgeType(DirectionVertical), wantMutex: true},
		{name: "reback vertical", edgeType: RebackEdgeType(DirectionVertical), wantReback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Edge{Type: tt.edgeType}
			assert.Equal(t, tt.wantMutex, e.IsMutex())
			assert.Equal(t, tt.wantReback, e.IsReback())
		})
	}
	assert.Equal(t, EdgeType("mutex-line-horizontal"), MutexEdgeType(DirectionHorizontal))
	assert.Equal(t, EdgeType("reback-line-vertical"), RebackEdgeType(DirectionVertical))
}

func TestData_ValidateAndLookups(t *testing.T) {
	d := &Data{
		Nodes: []*Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []*Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "c"},
			{ID: "e3", Source: "c", Target: "a", Type: RebackEdgeType(DirectionVertical)},
		},
	}
	require.NoError(t, d.Validate())

	_, ok := d.Node("b")
	assert.True(t, ok)
	_, ok = d.Edge("missing")
	assert.False(t, ok)
	assert.Len(t, d.IncidentEdges("a"), 2)
	assert.Equal(t, []string{"a"}, d.Roots(), "backflow edges are not inbound relations")

	clone := d.Clone()
	clone.Nodes[0].ID = "changed"
	assert.Equal(t, "a", d.Nodes[0].ID)
}

func TestData_ValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    *Data
		wantErr error
	}{
		{
			name:    "duplicate node",
			data:    &Data{Nodes: []*Node{{ID: "a"}, {ID: "a"}}},
			wantErr: ErrDuplicateNode,
		},
		{
			name: "duplicate edge",
			data: &Data{
				Nodes: []*Node{{ID: "a"}, {ID: "b"}},
				Edges: []*Edge{{ID: "e", Source: "a", Target: "b"}, {ID: "e", Source: "b", Target: "a"}},
			},
			wantErr: ErrDuplicateEdge,
		},
		{
			name:    "dangling target",
			data:    &Data{Nodes: []*Node{{ID: "a"}}, Edges: []*Edge{{ID: "e", Source: "a", Target: "x"}}},
			wantErr: ErrInvalidTarget,
		},
		{
			name:    "nil node",
			data:    &Data{Nodes: []*Node{nil}},
			wantErr: ErrNilNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.data.Validate(), tt.wantErr)
		})
	}
}

func TestDirection_Valid(t *testing.T) {
	assert.True(t, DirectionHorizontal.Valid())
	assert.True(t, DirectionVertical.Valid())
	assert.False(t, Direction("diagonal").Valid())
}

func TestData_NormalizeNumbers(t *testing.T) {
	d := &Data{Nodes: []*Node{{
		ID:    "n1",
		Style: map[string]interface{}{"lineWidth": int8(2), "opacity": 0.5},
		Extra: map[string]interface{}{
			"priority": uint8(200),
			"steps":    []interface{}{int16(-300), uint32(70000)},
			"owner":    map[string]interface{}{"seats": int64(40000), "name": "ops"},
			"huge":     uint64(1 << 63),
		},
	}}}

	d.NormalizeNumbers()

	n := d.Nodes[0]
	assert.Equal(t, map[string]interface{}{"lineWidth": 2, "opacity": 0.5}, n.Style)
	assert.Equal(t, 200, n.Extra["priority"])
	assert.Equal(t, []interface{}{-300, 70000}, n.Extra["steps"])
	assert.Equal(t, map[string]interface{}{"seats": 40000, "name": "ops"}, n.Extra["owner"])
	assert.Equal(t, uint64(1<<63), n.Extra["huge"])

	var empty *Data
	empty.NormalizeNumbers()
}
