package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lydakis/hostbridge/internal/convert"
	"github.com/lydakis/hostbridge/internal/native"
	"github.com/lydakis/hostbridge/internal/object"
)

func fixture(t *testing.T) (*Applier, *object.Node) {
	t.Helper()
	g := object.NewGraph()
	player := g.AddRoot(object.NewNode("Player", "node"))
	player.DefineMember("position", native.ShapeOf(native.Vec3Kind), native.Vec3{})
	player.DefineMember("health", native.ShapeOf(native.Int), int64(100))
	player.DefineMember("tint", native.ShapeOf(native.ColorKind), native.Color{A: 1})
	player.DefineMember("target", native.RefTo("camera"), nil)
	player.DefinePrivateMember("speed", native.ShapeOf(native.Float), 1.0, true)

	cam := object.NewNode("MainCamera", "camera")
	g.AddRoot(cam)
	g.AddRoot(object.NewNode("Light", "light"))

	reg := convert.NewRegistry(object.NewResolver(g))
	return New(reg), player
}

func TestApplyEmptyBatchSucceeds(t *testing.T) {
	a, player := fixture(t)

	res, err := a.Apply(player, map[string]any{}, nil)
	require.NoError(t, err)
	assert.True(t, res.AllSucceeded())
	assert.Empty(t, res.Updated)
	assert.Empty(t, res.Failed)
}

func TestApplyNilArgumentsFailFast(t *testing.T) {
	a, player := fixture(t)

	_, err := a.Apply(nil, map[string]any{}, nil)
	assert.Error(t, err)

	_, err = a.Apply(player, nil, nil)
	assert.Error(t, err)
}

func TestApplyPartialSuccess(t *testing.T) {
	a, player := fixture(t)

	res, err := a.Apply(player, map[string]any{
		"health":  "250",
		"nothere": 1.0,
	}, []string{"health", "nothere"})
	require.NoError(t, err)

	assert.False(t, res.AllSucceeded())
	assert.Equal(t, []string{"health"}, res.Updated)
	assert.Equal(t, []string{"nothere"}, res.Failed)
	assert.Contains(t, res.Errors["nothere"], "unknown property")

	v, ok := player.Get("health")
	require.True(t, ok)
	assert.Equal(t, int64(250), v)
}

func TestApplyConvertsAndAssigns(t *testing.T) {
	a, player := fixture(t)

	res, err := a.Apply(player, map[string]any{
		"position": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		"tint":     "red",
		"speed":    "2.5",
	}, []string{"position", "tint", "speed"})
	require.NoError(t, err)
	require.True(t, res.AllSucceeded(), "errors: %v", res.Errors)
	assert.Equal(t, []string{"position", "tint", "speed"}, res.Updated)

	pos, _ := player.Get("position")
	assert.Equal(t, native.Vec3{X: 1, Y: 2, Z: 3}, pos)
	tint, _ := player.Get("tint")
	assert.Equal(t, native.Color{R: 1, A: 1}, tint)
	speed, _ := player.Get("speed")
	assert.Equal(t, 2.5, speed, "exposed private members behave like public ones")
}

func TestApplyWrongKindReferenceFailsOnlyThatMember(t *testing.T) {
	a, player := fixture(t)

	res, err := a.Apply(player, map[string]any{
		"target": "Light", // resolves, but is a light, not a camera
		"health": 10.0,
	}, []string{"target", "health"})
	require.NoError(t, err)

	assert.Equal(t, []string{"health"}, res.Updated)
	assert.Equal(t, []string{"target"}, res.Failed)
	assert.NotEmpty(t, res.Errors["target"])
}

func TestApplyMissingReferenceIsAbsence(t *testing.T) {
	a, player := fixture(t)

	res, err := a.Apply(player, map[string]any{"target": "Ghost"}, nil)
	require.NoError(t, err)
	require.True(t, res.AllSucceeded())

	v, ok := player.Get("target")
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestApplyDeterministicOrderFallback(t *testing.T) {
	a, player := fixture(t)

	// No explicit order: sorted member names.
	res, err := a.Apply(player, map[string]any{
		"tint":   "blue",
		"health": 1.0,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"health", "tint"}, res.Updated)
}

func TestApplyConversionFailureReason(t *testing.T) {
	a, player := fixture(t)

	res, err := a.Apply(player, map[string]any{"health": "plenty"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"health"}, res.Failed)
	assert.Contains(t, res.Errors["health"], "plenty")
}
