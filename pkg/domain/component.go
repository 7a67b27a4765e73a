package domain

// Position is the location of a component on the canvas.
type Position struct {
	X float64
	Y float64
}

// Component is a placed instance of a Kind.
type Component struct {
	ID   string
	Kind *Kind
	Position
	// State is the latched output level (output 0).
	State Signal
	// Key binds a keyboard key to the kind's momentary interaction.
	Key string
}

// Clone returns a copy of c. The kind is shared since kinds are immutable.
func (c *Component) Clone() *Component {
	cp := *c
	return &cp
}

// RouteStyle selects how a wire is drawn. It has no effect on evaluation.
type RouteStyle string

const (
	StyleStraight RouteStyle = "straight"
	StyleCurve    RouteStyle = "curve"
	StyleElbow    RouteStyle = "elbow"
	StyleZigzag   RouteStyle = "zigzag"
	StyleStep     RouteStyle = "step"
	StyleLoop     RouteStyle = "loop"
	StyleArc      RouteStyle = "arc"
	StyleWave     RouteStyle = "wave"
	StyleBezier   RouteStyle = "bezier"

	DefaultRouteStyle = StyleCurve
)

var routeStyles = []RouteStyle{
	StyleStraight, StyleCurve, StyleElbow, StyleZigzag, StyleStep,
	StyleLoop, StyleArc, StyleWave, StyleBezier,
}

// RouteStyles returns the recognized styles.
func RouteStyles() []RouteStyle {
	return append([]RouteStyle(nil), routeStyles...)
}

// Valid reports whether s is a recognized style.
func (s RouteStyle) Valid() bool {
	for _, r := range routeStyles {
		if r == s {
			return true
		}
	}
	return false
}

// OrDefault returns s, or DefaultRouteStyle when s is not recognized.
func (s RouteStyle) OrDefault() RouteStyle {
	if s.Valid() {
		return s
	}
	return DefaultRouteStyle
}

// Connection is a wire from output FromOutput of component From to input
// ToInput of component To.
type Connection struct {
	ID         string
	From       string
	FromOutput int
	To         string
	ToInput    int
	Style      RouteStyle
}
