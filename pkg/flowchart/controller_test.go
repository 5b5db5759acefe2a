package flowchart

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	enginemem "github.com/flowgraph/flowchart/internal/adapters/engine/memory"
	coregraph "github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDiagram(t *testing.T, mutate func(*Config)) (*Controller, *enginemem.Engine) {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	eng := enginemem.New(cfg.Width, cfg.Height)
	c, err := New(cfg, eng, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, c.Init(nil))
	return c, eng
}

// stateOf returns the diagram with nodes and edges sorted by id.
func stateOf(t *testing.T, c *Controller) *Data {
	t.Helper()
	d, err := c.Export()
	require.NoError(t, err)
	out := &Data{}
	out.Nodes = append(out.Nodes, d.Nodes...)
	out.Edges = append(out.Edges, d.Edges...)
	slices.SortFunc(out.Nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(out.Edges, func(a, b *Edge) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func findNode(t *testing.T, eng *enginemem.Engine, id string) *Node {
	t.Helper()
	n, ok := eng.FindNode(id)
	require.True(t, ok, "node %s", id)
	return n
}

func TestNew_Config(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "vertical canvas", mutate: func(c *Config) { c.Direction, c.Renderer = "vertical", "canvas" }},
		{name: "missing container", mutate: func(c *Config) { c.Container = "" }, fields: []string{"container"}},
		{name: "bad direction", mutate: func(c *Config) { c.Direction = "diagonal" }, fields: []string{"direction"}},
		{name: "zero width", mutate: func(c *Config) { c.Width = 0 }, fields: []string{"width"}},
		{name: "bad renderer", mutate: func(c *Config) { c.Renderer = "webgl" }, fields: []string{"renderer"}},
		{name: "bad color", mutate: func(c *Config) { c.BaseEdgeColor = "blue" }, fields: []string{"baseEdgeColor"}},
		{
			name:   "several",
			mutate: func(c *Config) { c.Height, c.Renderer = -1, "" },
			fields: []string{"height", "renderer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			c, err := New(cfg, enginemem.New(1, 1))
			if tt.fields == nil {
				require.NoError(t, err)
				assert.NotNil(t, c)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			var verrs validation.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.fields, verrs.Fields())
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{Container: "root", Direction: "horizontal", Width: 10, Height: 10, Renderer: "svg"}, enginemem.New(10, 10))
	require.NoError(t, err)

	cfg := c.Config()
	assert.Equal(t, DefaultNodeColor, cfg.BaseNodeColor)
	assert.Equal(t, DefaultEdgeColor, cfg.BaseEdgeColor)
	assert.Equal(t, 100*time.Millisecond, cfg.ResizeQuietPeriod)
	assert.Equal(t, Horizontal, c.Direction())

	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestController_Lifecycle(t *testing.T) {
	cfg := DefaultConfig()
	eng := enginemem.New(cfg.Width, cfg.Height)
	c, err := New(cfg, eng, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.ErrorIs(t, c.CreateNode(NodeInfo{ID: "n1"}), ErrNotInitialized)
	assert.ErrorIs(t, c.Undo(), ErrNotInitialized)
	_, err = c.Export()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, 0, c.UndoSteps())

	require.NoError(t, c.Init(nil))
	assert.True(t, c.Ready())
	assert.ErrorIs(t, c.Init(nil), ErrAlreadyInitialized)

	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))
	require.NoError(t, c.Destroy())
	assert.False(t, c.Ready())
	assert.True(t, eng.Destroyed())
	assert.Equal(t, 0, c.UndoSteps())

	assert.ErrorIs(t, c.CreateNode(NodeInfo{ID: "n2"}), ErrNotInitialized)
	assert.ErrorIs(t, c.Destroy(), ErrNotInitialized)
	assert.ErrorIs(t, c.Init(nil), ErrEngineDestroyed)
}

func TestController_InitWithData(t *testing.T) {
	data := &Data{
		Nodes: []*Node{
			coregraph.NewNode(NodeInfo{ID: "start"}),
			coregraph.NewNode(NodeInfo{ID: "next"}),
			coregraph.NewNode(NodeInfo{ID: "loose"}),
		},
		Edges: []*Edge{{ID: "edge1", Source: "start", Target: "next", Type: coregraph.EdgeTypeLine}},
	}

	cfg := DefaultConfig()
	c, err := New(cfg, enginemem.New(cfg.Width, cfg.Height), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, c.Init(data))

	assert.Equal(t, []string{"start", "loose"}, c.FreeNodes())
	got, err := c.Export()
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 3)
	assert.Len(t, got.Edges, 1)

	// the caller's data is not shared with the engine
	data.Nodes[0].Label = "changed"
	assert.Empty(t, stateOf(t, c).Nodes[2].Label)

	bad := &Data{Edges: []*Edge{{ID: "e", Source: "a", Target: "b"}}}
	c2, err := New(cfg, enginemem.New(cfg.Width, cfg.Height))
	require.NoError(t, err)
	assert.Error(t, c2.Init(bad))
	assert.False(t, c2.Ready())
}

func TestCreateNode(t *testing.T) {
	c, eng := newDiagram(t, nil)

	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1", X: Float(10), Y: Float(20), Size: Float(50)}))
	n := findNode(t, eng, "n1")
	assert.Equal(t, 10.0, n.X)
	assert.Equal(t, 20.0, n.Y)
	assert.Equal(t, 50.0, n.Size)
	assert.Equal(t, coregraph.DefaultNodeType, n.Type)
	assert.Equal(t, coregraph.DefaultAnchorPoints(), n.AnchorPoints)
	assert.Equal(t, map[string]interface{}{}, n.Extra)

	require.NoError(t, c.CreateNode(NodeInfo{ID: "n2"}))
	n = findNode(t, eng, "n2")
	assert.Equal(t, coregraph.Point{X: 100, Y: 100}, n.Position())
	assert.Equal(t, 100.0, n.Size)

	assert.Equal(t, []string{"n1", "n2"}, c.FreeNodes())
	assert.Equal(t, 2, c.UndoSteps())
	assert.ErrorIs(t, c.CreateNode(NodeInfo{}), ErrInvalidNodeID)
}

func TestCreateNode_EngineFailureIsAbsorbed(t *testing.T) {
	c, eng := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))

	// duplicate id is rejected by the engine
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1", Label: String("again")}))
	assert.Equal(t, 1, c.UndoSteps())
	assert.Empty(t, findNode(t, eng, "n1").Label)

	eng.Fail(enginemem.OpAddNode, "")
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n2"}))
	assert.Equal(t, 1, c.UndoSteps())
	assert.Equal(t, []string{"n1"}, c.FreeNodes())
	_, ok := eng.FindNode("n2")
	assert.False(t, ok)
}

func TestAddRelation_Single(t *testing.T) {
	c, eng := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))

	require.NoError(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{}, ModeSingle))
	d := stateOf(t, c)
	require.Len(t, d.Nodes, 2)
	require.Len(t, d.Edges, 1)

	target := findNode(t, eng, "node2")
	assert.Equal(t, coregraph.Point{X: 500, Y: 100}, target.Position())
	assert.Equal(t, 20.0, target.Style["fontSize"])
	assert.Equal(t, &Edge{ID: "edge1", Source: "n1", Target: "node2", Type: coregraph.EdgeTypeLine}, d.Edges[0])

	// existing target only gets a new edge
	require.NoError(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{ID: "node2"}, ModeSingle))
	d = stateOf(t, c)
	assert.Len(t, d.Nodes, 2)
	require.Len(t, d.Edges, 2)
	assert.Equal(t, "edge2", d.Edges[1].ID)

	assert.Equal(t, []string{"create", "createRelation", "addRelation"}, actions(c))
}

func actions(c *Controller) []string {
	var out []string
	for _, a := range c.History() {
		out = append(out, string(a))
	}
	return out
}

func TestAddRelation_Placement(t *testing.T) {
	tests := []struct {
		name   string
		dir    string
		source NodeInfo
		target NodeInfo
		want   coregraph.Point
	}{
		{name: "horizontal from stored", dir: "horizontal", source: NodeInfo{ID: "n1"}, want: coregraph.Point{X: 500, Y: 100}},
		{name: "vertical from stored", dir: "vertical", source: NodeInfo{ID: "n1"}, want: coregraph.Point{X: 100, Y: 500}},
		{
			name:   "caller coordinates win",
			dir:    "horizontal",
			source: NodeInfo{ID: "n1", X: Float(0), Y: Float(40), Size: Float(20)},
			want:   coregraph.Point{X: 80, Y: 40},
		},
		{
			name:   "target coordinates ignored",
			dir:    "horizontal",
			source: NodeInfo{ID: "n1"},
			target: NodeInfo{X: Float(5), Y: Float(5)},
			want:   coregraph.Point{X: 500, Y: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, eng := newDiagram(t, func(cfg *Config) { cfg.Direction = tt.dir })
			require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))
			target := tt.target
			target.ID = "next"
			require.NoError(t, c.AddRelation(tt.source, target, ModeSingle))
			assert.Equal(t, tt.want, findNode(t, eng, "next").Position())
		})
	}
}

func TestAddRelation_GeneratedIDsSkipTaken(t *testing.T) {
	c, eng := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "node2"}))

	require.NoError(t, c.AddRelation(NodeInfo{ID: "node2"}, NodeInfo{}, ModeSingle))
	_, ok := eng.FindNode("node3")
	assert.True(t, ok)
	_, ok = eng.FindEdge("edge1")
	assert.True(t, ok)
}

func TestAddRelation_Branch(t *testing.T) {
	tests := []struct {
		name          string
		dir           string
		target        NodeInfo
		ids           [3]string
		on, off       coregraph.Point
		onA, offA, tA int
	}{
		{
			name:   "horizontal named",
			dir:    "horizontal",
			target: NodeInfo{ID: "t", Label: String("check")},
			ids:    [3]string{"t", "t1", "t2"},
			on:     coregraph.Point{X: 900, Y: -100},
			off:    coregraph.Point{X: 900, Y: 300},
			onA:    0, offA: 2, tA: 3,
		},
		{
			name:   "horizontal target coordinates ignored",
			dir:    "horizontal",
			target: NodeInfo{ID: "t", X: Float(5), Y: Float(5)},
			ids:    [3]string{"t", "t1", "t2"},
			on:     coregraph.Point{X: 900, Y: -100},
			off:    coregraph.Point{X: 900, Y: 300},
			onA:    0, offA: 2, tA: 3,
		},
		{
			name:   "vertical generated",
			dir:    "vertical",
			target: NodeInfo{},
			ids:    [3]string{"node2", "node3", "node4"},
			on:     coregraph.Point{X: 300, Y: 900},
			off:    coregraph.Point{X: -100, Y: 900},
			onA:    1, offA: 3, tA: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, eng := newDiagram(t, func(cfg *Config) { cfg.Direction = tt.dir })
			require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))

			require.NoError(t, c.AddRelation(NodeInfo{ID: "n1"}, tt.target, ModeBranch))

			d := stateOf(t, c)
			assert.Len(t, d.Nodes, 4)
			require.Len(t, d.Edges, 3)

			on := findNode(t, eng, tt.ids[1])
			off := findNode(t, eng, tt.ids[2])
			assert.Equal(t, tt.on, on.Position())
			assert.Equal(t, tt.off, off.Position())
			if tt.target.Label != nil {
				assert.Equal(t, "check1", on.Label)
				assert.Equal(t, "check2", off.Label)
			}

			mutex := coregraph.MutexEdgeType(coregraph.Direction(tt.dir))
			assert.Equal(t, &Edge{ID: "edge1", Source: "n1", Target: tt.ids[0], Type: coregraph.EdgeTypeLine}, d.Edges[0])
			assert.Equal(t, &Edge{
				ID: "edge2", Source: tt.ids[0], Target: tt.ids[1], Type: mutex,
				SourceAnchor: coregraph.Anchor(tt.onA), TargetAnchor: coregraph.Anchor(tt.tA),
			}, d.Edges[1])
			assert.Equal(t, &Edge{
				ID: "edge3", Source: tt.ids[0], Target: tt.ids[2], Type: mutex,
				SourceAnchor: coregraph.Anchor(tt.offA), TargetAnchor: coregraph.Anchor(tt.tA),
			}, d.Edges[2])

			assert.Equal(t, []string{"create", "multiNode"}, actions(c))
		})
	}
}

func TestAddRelation_Errors(t *testing.T) {
	c, _ := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n2"}))
	before := stateOf(t, c)

	assert.ErrorIs(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{ID: "n2"}, ModeBranch), ErrBranchTargetExists)
	assert.ErrorIs(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{ID: "n2"}, ModeMulti), ErrBranchTargetExists)
	assert.ErrorIs(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{}, "triple"), ErrInvalidMode)
	assert.ErrorIs(t, c.AddRelation(NodeInfo{ID: "ghost"}, NodeInfo{}, ModeSingle), ErrNodeNotFound)
	assert.ErrorIs(t, c.AddRelation(NodeInfo{}, NodeInfo{}, ModeSingle), ErrInvalidNodeID)

	assert.Equal(t, before, stateOf(t, c))
	assert.Equal(t, 2, c.UndoSteps())
}

func TestAddRelation_FailureRollsBack(t *testing.T) {
	tests := []struct {
		name string
		op   enginemem.Op
		id   string
		mode RelationMode
	}{
		{name: "single edge", op: enginemem.OpAddEdge, id: "edge1", mode: ModeSingle},
		{name: "single node", op: enginemem.OpAddNode, id: "node2", mode: ModeSingle},
		{name: "branch outcome node", op: enginemem.OpAddNode, id: "node4", mode: ModeBranch},
		{name: "branch last edge", op: enginemem.OpAddEdge, id: "edge3", mode: ModeBranch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, eng := newDiagram(t, nil)
			require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))
			before := stateOf(t, c)

			eng.Fail(tt.op, tt.id)
			require.NoError(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{}, tt.mode))
			assert.Equal(t, before, stateOf(t, c))
			assert.Equal(t, 1, c.UndoSteps())
		})
	}
}

func TestParseRelationMode(t *testing.T) {
	for in, want := range map[string]RelationMode{"": ModeSingle, "single": ModeSingle, "branch": ModeBranch, "multi": ModeBranch} {
		got, err := ParseRelationMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseRelationMode("both")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestUpdateNode(t *testing.T) {
	c, eng := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1", Style: map[string]interface{}{"fill": "#FFFFFF"}}))

	require.NoError(t, c.UpdateNode(NodeInfo{
		ID:    "n1",
		Label: String("renamed"),
		Style: map[string]interface{}{"stroke": "#000A34"},
		Extra: map[string]interface{}{"owner": "ops"},
	}))
	n := findNode(t, eng, "n1")
	assert.Equal(t, "renamed", n.Label)
	assert.Equal(t, map[string]interface{}{"fill": "#FFFFFF", "stroke": "#000A34"}, n.Style)
	assert.Equal(t, "ops", n.Extra["owner"])
	assert.Equal(t, 100.0, n.X)

	assert.ErrorIs(t, c.UpdateNode(NodeInfo{ID: "ghost"}), ErrNodeNotFound)
	assert.ErrorIs(t, c.UpdateNode(NodeInfo{}), ErrInvalidNodeID)

	eng.Fail(enginemem.OpUpdateNode, "n1")
	require.NoError(t, c.UpdateNode(NodeInfo{ID: "n1", Label: String("lost")}))
	assert.Equal(t, "renamed", findNode(t, eng, "n1").Label)
	assert.Equal(t, 2, c.UndoSteps())
}

func TestDeleteNode(t *testing.T) {
	c, eng := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))
	require.NoError(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{}, ModeSingle))
	require.NoError(t, c.AddRelation(NodeInfo{ID: "node2"}, NodeInfo{}, ModeSingle))

	require.NoError(t, c.DeleteNode("node2"))
	d := stateOf(t, c)
	assert.Len(t, d.Nodes, 2)
	assert.Empty(t, d.Edges)

	assert.ErrorIs(t, c.DeleteNode("node2"), ErrNodeNotFound)

	eng.Fail(enginemem.OpRemoveItem, "n1")
	require.NoError(t, c.DeleteNode("n1"))
	findNode(t, eng, "n1")
	assert.Equal(t, 4, c.UndoSteps())
}

// chain builds n1 -> node2 -> node3.
func chain(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))
	require.NoError(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{}, ModeSingle))
	require.NoError(t, c.AddRelation(NodeInfo{ID: "node2"}, NodeInfo{}, ModeSingle))
}

func rebackEdges(d *Data, source string) []*Edge {
	var out []*Edge
	for _, e := range d.Edges {
		if e.Source == source && e.IsReback() {
			out = append(out, e)
		}
	}
	return out
}

func TestAddReback(t *testing.T) {
	tests := []struct {
		dir    string
		anchor int
	}{
		{dir: "horizontal", anchor: 0},
		{dir: "vertical", anchor: 3},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			c, eng := newDiagram(t, func(cfg *Config) { cfg.Direction = tt.dir })
			chain(t, c)

			require.NoError(t, c.AddReback("node3", "n1"))
			d := stateOf(t, c)
			backs := rebackEdges(d, "node3")
			require.Len(t, backs, 1)
			assert.Equal(t, &Edge{
				ID: "edge3", Source: "node3", Target: "n1",
				Type:         coregraph.RebackEdgeType(coregraph.Direction(tt.dir)),
				SourceAnchor: coregraph.Anchor(tt.anchor), TargetAnchor: coregraph.Anchor(tt.anchor),
			}, backs[0])
			assert.Equal(t, &coregraph.Reback{ID: "n1"}, findNode(t, eng, "node3").Reback)

			// a second target replaces the first backflow edge
			require.NoError(t, c.AddReback("node3", "node2"))
			backs = rebackEdges(stateOf(t, c), "node3")
			require.Len(t, backs, 1)
			assert.Equal(t, "node2", backs[0].Target)
			assert.Equal(t, &coregraph.Reback{ID: "node2"}, findNode(t, eng, "node3").Reback)
			assert.Len(t, stateOf(t, c).Edges, 3)
		})
	}
}

func TestAddReback_Errors(t *testing.T) {
	c, eng := newDiagram(t, nil)
	chain(t, c)
	require.NoError(t, c.AddReback("node3", "n1"))
	before := stateOf(t, c)

	assert.ErrorIs(t, c.AddReback("ghost", "n1"), ErrNodeNotFound)
	assert.ErrorIs(t, c.AddReback("node3", "ghost"), ErrNodeNotFound)
	assert.ErrorIs(t, c.AddReback("node3", "node3"), ErrSelfLoop)

	// a failure after the old edge was removed restores it
	eng.Fail(enginemem.OpUpdateNode, "node3")
	require.NoError(t, c.AddReback("node3", "node2"))
	assert.Equal(t, before, stateOf(t, c))
	assert.Equal(t, 4, c.UndoSteps())
}

func TestRebackAnchor(t *testing.T) {
	c, _ := newDiagram(t, nil)
	chain(t, c)
	require.NoError(t, c.UpdateNode(NodeInfo{ID: "node3", Y: Float(300)}))

	anchor, err := c.RebackAnchor("node3", "n1")
	require.NoError(t, err)
	assert.Equal(t, coregraph.AnchorBottom, anchor)

	anchor, err = c.RebackAnchor("n1", "node3")
	require.NoError(t, err)
	assert.Equal(t, coregraph.AnchorTop, anchor)

	_, err = c.RebackAnchor("n1", "ghost")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestGetRebackNodes(t *testing.T) {
	c, _ := newDiagram(t, nil)
	chain(t, c)
	require.NoError(t, c.AddRelation(NodeInfo{ID: "n1"}, NodeInfo{}, ModeSingle))
	require.NoError(t, c.AddRelation(NodeInfo{ID: "node4"}, NodeInfo{ID: "node3"}, ModeSingle))
	require.NoError(t, c.CreateNode(NodeInfo{ID: "island"}))

	got, err := c.GetRebackNodes("node3")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"n1", "node2", "node4"}, ids(got))

	got, err = c.GetRebackNodes("node2")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(got))

	for _, free := range []string{"n1", "island"} {
		got, err = c.GetRebackNodes(free)
		require.NoError(t, err)
		assert.Empty(t, got, free)
	}

	_, err = c.GetRebackNodes("ghost")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestGetRebackNodes_FreeNodeWithInboundEdges(t *testing.T) {
	c, _ := newDiagram(t, nil)
	chain(t, c)
	require.NoError(t, c.AddRelation(NodeInfo{ID: "node3"}, NodeInfo{ID: "n1"}, ModeSingle))

	got, err := c.GetRebackNodes("n1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClean(t *testing.T) {
	c, eng := newDiagram(t, nil)
	chain(t, c)

	require.NoError(t, c.Clean())
	assert.Empty(t, stateOf(t, c).Nodes)
	assert.Equal(t, "clear", actions(c)[len(actions(c))-1])

	eng.Fail(enginemem.OpClear, "")
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n9"}))
	require.NoError(t, c.Clean())
	assert.Len(t, stateOf(t, c).Nodes, 1)
	assert.Equal(t, "create", actions(c)[len(actions(c))-1])
}

func TestBindEvent(t *testing.T) {
	cfg := DefaultConfig()
	eng := enginemem.New(cfg.Width, cfg.Height)
	c, err := New(cfg, eng, WithLogger(quietLogger()))
	require.NoError(t, err)

	var clicks []string
	c.BindEvent(coregraph.EventNodeClick, func(e Event) { clicks = append(clicks, "first:"+e.ItemID) })
	c.BindEvent(coregraph.EventNodeClick, func(e Event) { clicks = append(clicks, "second:"+e.ItemID) })
	require.NoError(t, c.Init(nil))

	late := false
	c.BindEvent(coregraph.EventNodeDblClick, func(Event) { late = true })

	eng.Emit(Event{Type: coregraph.EventNodeClick, ItemID: "n1"})
	eng.Emit(Event{Type: coregraph.EventNodeDblClick, ItemID: "n1"})
	assert.Equal(t, []string{"second:n1"}, clicks)
	assert.False(t, late)
}

func TestDragRecordsUpdate(t *testing.T) {
	c, eng := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))

	eng.Emit(Event{Type: coregraph.EventNodeDragStart, ItemID: "n1", X: 100, Y: 100})
	id, dragging := c.Dragging()
	assert.True(t, dragging)
	assert.Equal(t, "n1", id)

	require.NoError(t, eng.Move("n1", 420, 180))
	eng.Emit(Event{Type: coregraph.EventNodeDragEnd, ItemID: "n1", X: 420, Y: 180})
	_, dragging = c.Dragging()
	assert.False(t, dragging)
	assert.Equal(t, []string{"create", "update"}, actions(c))

	require.NoError(t, c.Undo())
	assert.Equal(t, coregraph.Point{X: 100, Y: 100}, findNode(t, eng, "n1").Position())
	require.NoError(t, c.Redo())
	assert.Equal(t, coregraph.Point{X: 420, Y: 180}, findNode(t, eng, "n1").Position())
}

func TestResize(t *testing.T) {
	t.Run("immediate", func(t *testing.T) {
		c, eng := newDiagram(t, nil)
		require.NoError(t, c.Resize(640, 480))
		w, h := eng.Size()
		assert.Equal(t, 640, w)
		assert.Equal(t, 480, h)
	})

	t.Run("debounced", func(t *testing.T) {
		c, eng := newDiagram(t, func(cfg *Config) {
			cfg.FitView = true
			cfg.ResizeQuietPeriod = 50 * time.Millisecond
		})
		require.NoError(t, c.Resize(300, 300))
		require.NoError(t, c.Resize(400, 300))
		require.NoError(t, c.Resize(500, 300))

		w, _ := eng.Size()
		assert.Equal(t, 1200, w)
		assert.Eventually(t, func() bool {
			w, _ := eng.Size()
			return w == 500
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("destroy cancels pending resize", func(t *testing.T) {
		c, eng := newDiagram(t, func(cfg *Config) {
			cfg.FitView = true
			cfg.ResizeQuietPeriod = 20 * time.Millisecond
		})
		require.NoError(t, c.Resize(10, 10))
		require.NoError(t, c.Destroy())
		time.Sleep(50 * time.Millisecond)
		w, h := eng.Size()
		assert.Equal(t, 1200, w)
		assert.Equal(t, 800, h)
	})
}

func TestExport_ReturnsCopy(t *testing.T) {
	c, eng := newDiagram(t, nil)
	require.NoError(t, c.CreateNode(NodeInfo{ID: "n1"}))

	d, err := c.Export()
	require.NoError(t, err)
	d.Nodes[0].Label = "mutated"
	assert.Empty(t, findNode(t, eng, "n1").Label)
}
