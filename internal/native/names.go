package native

import "strings"

// Well-known symbolic constants accepted by the struct converter in
// place of a field map. Lookups are case-insensitive.

var colorNames = map[string]Color{
	"red":     {R: 1, A: 1},
	"green":   {G: 1, A: 1},
	"blue":    {B: 1, A: 1},
	"white":   {R: 1, G: 1, B: 1, A: 1},
	"black":   {A: 1},
	"yellow":  {R: 1, G: 1, A: 1},
	"cyan":    {G: 1, B: 1, A: 1},
	"magenta": {R: 1, B: 1, A: 1},
	"gray":    {R: 0.5, G: 0.5, B: 0.5, A: 1},
	"grey":    {R: 0.5, G: 0.5, B: 0.5, A: 1},
	"clear":   {},
}

var vec3Names = map[string]Vec3{
	"zero":    {},
	"one":     {X: 1, Y: 1, Z: 1},
	"up":      {Y: 1},
	"down":    {Y: -1},
	"left":    {X: -1},
	"right":   {X: 1},
	"forward": {Z: 1},
	"back":    {Z: -1},
}

var vec2Names = map[string]Vec2{
	"zero":  {},
	"one":   {X: 1, Y: 1},
	"up":    {Y: 1},
	"down":  {Y: -1},
	"left":  {X: -1},
	"right": {X: 1},
}

// ColorByName resolves a symbolic color constant.
func ColorByName(name string) (Color, bool) {
	c, ok := colorNames[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Vec3ByName resolves a symbolic direction constant.
func Vec3ByName(name string) (Vec3, bool) {
	v, ok := vec3Names[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// Vec2ByName resolves a symbolic direction constant.
func Vec2ByName(name string) (Vec2, bool) {
	v, ok := vec2Names[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// QuatByName resolves a symbolic rotation constant ("identity").
func QuatByName(name string) (Quat, bool) {
	if strings.EqualFold(strings.TrimSpace(name), "identity") {
		return Identity(), true
	}
	return Quat{}, false
}
