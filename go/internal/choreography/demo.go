package choreography

const (
	demoFrames   = 30
	demoDuration = 5
	demoPlaces   = 100
)

// DemoBundle is the built-in choreography served when no catalog is reachable:
// thirty 5s frames cycling through three colors in runs of three.
func DemoBundle() Bundle {
	b := Bundle{
		Colors:    make([]int, demoFrames),
		Durations: make([]int, demoFrames),
		Palette:   []string{"#FF3D00", "#00E676", "#2979FF"},
		Icons:     []string{"star", "circle", "square"},
		Places:    demoPlaces,
		Unit:      UnitSeconds,
	}
	for i := range demoFrames {
		b.Colors[i] = (i/3)%3 + 1
		b.Durations[i] = demoDuration
	}
	return b
}

// Demo loads DemoBundle.
func Demo() *Model {
	m, err := Load(DemoBundle())
	if err != nil {
		panic(err)
	}
	return m
}
