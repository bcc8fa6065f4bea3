package render

// Kind selects how a decorative element is drawn.
type Kind string

const (
	KindCircle Kind = "circle"
	KindRect   Kind = "rect"
	KindStar   Kind = "star"
	KindWave   Kind = "wave"
	KindBubble Kind = "bubble"
	KindHex    Kind = "hex"
	KindFlower Kind = "flower"
	KindGrid   Kind = "grid"
	KindSun    Kind = "sun"
	KindAurora Kind = "aurora"
)

// Element is one decorative shape. X and Y are fractions of the canvas;
// Size, Width and Height are pixels; Rotation is in degrees.
type Element struct {
	Kind     Kind
	X, Y     float64
	Size     float64
	Width    float64
	Height   float64
	Rotation float64
	Points   int
	Opacity  float64
}

// Design is a named colour scheme plus its decorations.
type Design struct {
	Name         string
	GradientFrom string
	GradientTo   string
	Glow         string
	GlowStrength float64
	Decorations  []Element
}

// Designs is the catalogue a render picks from.
var Designs = []Design{
	{
		Name: "midnight-blue", GradientFrom: "#1a1a2e", GradientTo: "#16213e",
		Glow: "#ffffff", GlowStrength: 3,
		Decorations: []Element{
			{Kind: KindCircle, X: 0.1, Y: 0.8, Size: 40, Opacity: 0.03},
			{Kind: KindCircle, X: 0.9, Y: 0.2, Size: 60, Opacity: 0.03},
		},
	},
	{
		Name: "forest-depths", GradientFrom: "#1B4242", GradientTo: "#092635",
		Glow: "#9EC8B9", GlowStrength: 4,
		Decorations: []Element{
			{Kind: KindRect, X: 0.1, Y: 0.1, Width: 80, Height: 80, Rotation: 45, Opacity: 0.04},
			{Kind: KindRect, X: 0.9, Y: 0.9, Width: 60, Height: 60, Rotation: -45, Opacity: 0.04},
		},
	},
	{
		Name: "cosmic-purple", GradientFrom: "#2D033B", GradientTo: "#810CA8",
		Glow: "#C147E9", GlowStrength: 3,
		Decorations: []Element{
			{Kind: KindStar, Points: 5, X: 0.15, Y: 0.2, Size: 30, Opacity: 0.05},
			{Kind: KindStar, Points: 5, X: 0.85, Y: 0.8, Size: 40, Opacity: 0.05},
		},
	},
	{
		Name: "sunset-vibes", GradientFrom: "#3A1C71", GradientTo: "#D76D77",
		Glow: "#FFB88C", GlowStrength: 4,
		Decorations: []Element{
			{Kind: KindWave, X: 0, Y: 0.8, Width: Width, Height: 60, Opacity: 0.05},
		},
	},
	{
		Name: "deep-ocean", GradientFrom: "#000428", GradientTo: "#004e92",
		Glow: "#00ccff", GlowStrength: 3,
		Decorations: []Element{
			{Kind: KindBubble, X: 0.2, Y: 0.3, Size: 30, Opacity: 0.04},
			{Kind: KindBubble, X: 0.8, Y: 0.6, Size: 40, Opacity: 0.04},
			{Kind: KindBubble, X: 0.5, Y: 0.2, Size: 25, Opacity: 0.04},
		},
	},
	{
		Name: "emerald-night", GradientFrom: "#004D40", GradientTo: "#00251a",
		Glow: "#00E676", GlowStrength: 3,
		Decorations: []Element{
			{Kind: KindHex, X: 0.1, Y: 0.2, Size: 50, Opacity: 0.03},
			{Kind: KindHex, X: 0.9, Y: 0.8, Size: 70, Opacity: 0.03},
		},
	},
	{
		Name: "cherry-blossom", GradientFrom: "#2b2024", GradientTo: "#3d2c33",
		Glow: "#ffb7c5", GlowStrength: 3,
		Decorations: []Element{
			{Kind: KindFlower, X: 0.15, Y: 0.15, Size: 40, Opacity: 0.04},
			{Kind: KindFlower, X: 0.85, Y: 0.85, Size: 40, Opacity: 0.04},
		},
	},
	{
		Name: "tech-noir", GradientFrom: "#0a192f", GradientTo: "#112240",
		Glow: "#64ffda", GlowStrength: 3,
		Decorations: []Element{{Kind: KindGrid, Opacity: 0.02}},
	},
	{
		Name: "golden-hours", GradientFrom: "#2C3E50", GradientTo: "#3498DB",
		Glow: "#F1C40F", GlowStrength: 4,
		Decorations: []Element{{Kind: KindSun, X: 0.85, Y: 0.15, Size: 60, Opacity: 0.05}},
	},
	{
		Name: "northern-lights", GradientFrom: "#000428", GradientTo: "#004e92",
		Glow: "#80FF72", GlowStrength: 4,
		Decorations: []Element{{Kind: KindAurora, Opacity: 0.06}},
	},
}

// DesignByName looks up a design in the catalogue.
func DesignByName(name string) (Design, bool) {
	for _, d := range Designs {
		if d.Name == name {
			return d, true
		}
	}
	return Design{}, false
}
