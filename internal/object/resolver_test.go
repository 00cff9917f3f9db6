package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lydakis/hostbridge/internal/native"
)

func enemyGraph() *Graph {
	g := NewGraph()
	for _, name := range []string{"Enemy", "Enemy1", "EnemyBoss", "Ally"} {
		g.AddRoot(NewNode(name, "node"))
	}
	return g
}

func TestFindAllWildcardStar(t *testing.T) {
	r := NewResolver(enemyGraph())

	matches, err := r.FindAll("Enemy*")
	require.NoError(t, err)

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name()
	}
	assert.Equal(t, []string{"Enemy", "Enemy1", "EnemyBoss"}, names)
}

func TestFindAllWildcardQuestionMark(t *testing.T) {
	r := NewResolver(enemyGraph())

	matches, err := r.FindAll("Enemy?")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Enemy1", matches[0].Name())
}

func TestFindAllRegexMode(t *testing.T) {
	r := NewResolver(enemyGraph())

	matches, err := r.FindAll("regex:^enemy[0-9]+$")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Enemy1", matches[0].Name())

	_, err = r.FindAll("regex:[")
	assert.Error(t, err)
}

func TestResolveHierarchicalPath(t *testing.T) {
	g := NewGraph()
	level := g.AddRoot(NewNode("Level", "node"))
	squad := level.AddChild(NewNode("Squad", "node"))
	squad.AddChild(NewNode("Leader", "node"))

	r := NewResolver(g)

	obj, miss := r.Resolve("Level/Squad/Leader", "")
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "Level/Squad/Leader", obj.Path())

	_, miss = r.Resolve("Level/Squad/Sniper", "")
	assert.Equal(t, MissNotFound, miss)
}

func TestResolveBareNameFirstMatch(t *testing.T) {
	g := NewGraph()
	a := g.AddRoot(NewNode("A", "node"))
	a.AddChild(NewNode("Target", "node"))
	b := g.AddRoot(NewNode("B", "node"))
	b.AddChild(NewNode("Target", "node"))

	r := NewResolver(g)
	obj, miss := r.Resolve("Target", "")
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "A/Target", obj.Path())
}

func TestResolveKindAndCapability(t *testing.T) {
	g := NewGraph()
	rig := g.AddRoot(NewNode("Rig", "node"))
	camNode := NewNode("MainCamera", "camera")
	camNode.DefineMember("fov", native.ShapeOf(native.Float), 60.0)
	rig.AttachCapability(camNode)

	r := NewResolver(g)

	// Kind matches the node itself.
	obj, miss := r.Resolve("Rig", "node")
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "Rig", obj.Name())

	// Kind resolved via attached capability.
	obj, miss = r.Resolve("Rig", "camera")
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "camera", obj.Kind())

	// Resolved path, missing capability: wrong kind, not not-found.
	_, miss = r.Resolve("Rig", "rigidbody")
	assert.Equal(t, MissWrongKind, miss)

	_, miss = r.Resolve("Nowhere", "camera")
	assert.Equal(t, MissNotFound, miss)
}

func TestResolveWildcardSingleFirstMatch(t *testing.T) {
	r := NewResolver(enemyGraph())
	obj, miss := r.Resolve("Enemy*", "")
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "Enemy", obj.Name())
}

func TestResolveDescriptorConventions(t *testing.T) {
	g := NewGraph()
	g.AddRoot(NewNode("Player", "node"))
	r := NewResolver(g)

	obj, miss, err := r.ResolveDescriptor("Player", "")
	require.NoError(t, err)
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "Player", obj.Name())

	obj, miss, err = r.ResolveDescriptor(map[string]any{"ref": "Player"}, "")
	require.NoError(t, err)
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "Player", obj.Name())

	obj, miss, err = r.ResolveDescriptor(map[string]any{"path": "Player", "kind": "node"}, "")
	require.NoError(t, err)
	require.Equal(t, MissNone, miss)
	assert.Equal(t, "Player", obj.Name())

	_, _, err = r.ResolveDescriptor(map[string]any{"id": 7}, "")
	assert.Error(t, err)

	_, _, err = r.ResolveDescriptor(42, "")
	assert.Error(t, err)
}

func TestCaseInsensitivePatterns(t *testing.T) {
	r := NewResolver(enemyGraph())
	matches, err := r.FindAll("enemy*")
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}
