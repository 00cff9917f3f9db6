package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeString(t *testing.T) {
	cases := []struct {
		shape Shape
		want  string
	}{
		{ShapeOf(Float), "float"},
		{ShapeOf(Vec3Kind), "vec3"},
		{ListOf(ShapeOf(Int)), "list<int>"},
		{ListOf(ListOf(ShapeOf(String))), "list<list<string>>"},
		{RefTo(""), "ref"},
		{RefTo("camera"), "ref<camera>"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.shape.String())
	}
}

func TestZeroValueDefaults(t *testing.T) {
	assert.Equal(t, Quat{W: 1}, ZeroValue(ShapeOf(QuatKind)))
	assert.Equal(t, Color{A: 1}, ZeroValue(ShapeOf(ColorKind)))
	assert.Equal(t, []any{}, ZeroValue(ListOf(ShapeOf(Float))))
	assert.Equal(t, Vec3{}, ZeroValue(ShapeOf(Vec3Kind)))
	assert.Nil(t, ZeroValue(ShapeOf(Ref)))
}

func TestNameTablesCaseInsensitive(t *testing.T) {
	c, ok := ColorByName(" RED ")
	assert.True(t, ok)
	assert.Equal(t, Color{R: 1, A: 1}, c)

	v, ok := Vec3ByName("Up")
	assert.True(t, ok)
	assert.Equal(t, Vec3{Y: 1}, v)

	q, ok := QuatByName("IDENTITY")
	assert.True(t, ok)
	assert.Equal(t, Identity(), q)

	_, ok = Vec3ByName("sideways")
	assert.False(t, ok)
}
