package drape

import (
	"encoding/json"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// maxMeshVertices bounds a single mesh so that uint16 indices can address it.
const maxMeshVertices = 1 << 16

// Palette holds the four fabric tones as hex strings ("#rrggbb").
type Palette struct {
	BaseA     string `json:"baseA"`
	BaseB     string `json:"baseB"`
	Thread    string `json:"thread"`
	Highlight string `json:"highlight"`
}

// palette is the parsed, linear-ready form of Palette.
type palette struct {
	baseA, baseB, thread, highlight Color
}

// parse converts the hex tones into Colors.
func (p Palette) parse() (palette, error) {
	var out palette
	pairs := []struct {
		name string
		hex  string
		dst  *Color
	}{
		{"baseA", p.BaseA, &out.baseA},
		{"baseB", p.BaseB, &out.baseB},
		{"thread", p.Thread, &out.thread},
		{"highlight", p.Highlight, &out.highlight},
	}
	for _, pr := range pairs {
		c, err := parseHexColor(pr.hex)
		if err != nil {
			return palette{}, fmt.Errorf("palette %s: %w", pr.name, err)
		}
		*pr.dst = c
	}
	return out, nil
}

// parseHexColor parses "#rrggbb" into an opaque Color.
func parseHexColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalidConfig, hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}, nil
}

// ClothConfig is fixed at mount. Distances are in cloth-local pixels; the
// surface is scaled to fit its container when drawn.
type ClothConfig struct {
	// Cols and Rows set the tessellation (cells, not vertices).
	Cols int `json:"cols"`
	Rows int `json:"rows"`
	// Width and Height are the rest extents of the plane.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Gravity drape: downward and forward pull on the free edge.
	Gravity        float64 `json:"gravity"`
	GravityForward float64 `json:"gravityForward"`

	// Wind sway (product of sines) plus a secondary ripple at RippleDetail of
	// the primary amplitude.
	WindAmplitude float64 `json:"windAmplitude"`
	WindFrequency float64 `json:"windFrequency"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDetail    float64 `json:"windDetail"`

	// Pointer ripple: sin(d*RippleFrequency - t*RippleSpeed) * exp(-d*RippleDecay).
	RippleAmplitude float64 `json:"rippleAmplitude"`
	RippleFrequency float64 `json:"rippleFrequency"`
	RippleSpeed     float64 `json:"rippleSpeed"`
	RippleDecay     float64 `json:"rippleDecay"`

	// Scroll fold: lift and pull-back of the free edge, and vertical
	// compression of the whole surface at full scroll. The compression
	// factor never drops below MinCompression.
	FoldLift        float64 `json:"foldLift"`
	FoldBack        float64 `json:"foldBack"`
	FoldCompression float64 `json:"foldCompression"`
	MinCompression  float64 `json:"minCompression"`

	// FadeStart is the scroll progress at which the surface starts to fade
	// out; it is fully transparent at progress 1.
	FadeStart float64 `json:"fadeStart"`

	// Shading.
	WeaveDensity float64 `json:"weaveDensity"`
	RimPower     float64 `json:"rimPower"`
	Palette      Palette `json:"palette"`

	// PointerSmoothing is the ripple tracker's K; ripples want it snappy.
	PointerSmoothing float64 `json:"pointerSmoothing"`

	// CameraDistance controls the perspective applied to Z displacement.
	CameraDistance float64 `json:"cameraDistance"`

	// ShaderSource replaces the built-in Kage fragment shader when non-empty.
	ShaderSource string `json:"-"`
}

// StrandConfig configures the loose threads hanging off the cloth.
type StrandConfig struct {
	Points    int     `json:"points"`
	Length    float64 `json:"length"`
	Width     float64 `json:"width"`
	Amplitude Range   `json:"amplitude"`
	Speed     Range   `json:"speed"`
	// Pull is the fraction of each point's offset from the anchor removed at
	// full scroll progress.
	Pull  float64 `json:"pull"`
	Seed  uint64  `json:"seed"`
	Color string  `json:"color"`
}

// ParticleConfig configures the mote field.
type ParticleConfig struct {
	Size        Range `json:"size"`
	Speed       Range `json:"speed"`
	DriftRadius Range `json:"driftRadius"`
	// Attraction is the maximum pixel offset toward the smoothed pointer.
	Attraction       float64 `json:"attraction"`
	PointerSmoothing float64 `json:"pointerSmoothing"`
	// RiseDistance is the upward travel at FadeThreshold.
	RiseDistance  float64   `json:"riseDistance"`
	FadeThreshold float64   `json:"fadeThreshold"`
	Seed          uint64    `json:"seed"`
	Color         string    `json:"color"`
	BlendMode     BlendMode `json:"blendMode"`
}

// Config holds every effect-scoped knob. Zero values are not meaningful;
// start from DefaultConfig or LoadConfig.
type Config struct {
	// ParticleCount is the number of motes. Callers pass a lower count on
	// constrained devices; it is never derived.
	ParticleCount int `json:"particleCount"`
	// PixelDensityCap bounds the render resolution independent of the
	// display's device scale factor.
	PixelDensityCap float64 `json:"pixelDensityCap"`
	// Antialias enables antialiased triangle rasterization.
	Antialias bool `json:"antialias"`
	// StrandCount is the number of loose threads; 0 disables strands.
	StrandCount int `json:"strandCount"`
	// EntranceDuration is the fade-in length in seconds once Ready is set.
	EntranceDuration float64 `json:"entranceDuration"`

	Cloth     ClothConfig    `json:"cloth"`
	Strands   StrandConfig   `json:"strands"`
	Particles ParticleConfig `json:"particles"`
}

// DefaultConfig returns the documented defaults for the given tier. Mobile
// gets 60 particles, a 24x16 cloth, no strands, no antialiasing and a 1.5x
// density cap.
func DefaultConfig(tier DeviceTier) Config {
	cfg := Config{
		ParticleCount:    220,
		PixelDensityCap:  2,
		Antialias:        true,
		StrandCount:      5,
		EntranceDuration: 1.2,
		Cloth: ClothConfig{
			Cols:             64,
			Rows:             48,
			Width:            900,
			Height:           560,
			Gravity:          38,
			GravityForward:   60,
			WindAmplitude:    22,
			WindFrequency:    0.008,
			WindSpeed:        0.6,
			WindDetail:       0.35,
			RippleAmplitude:  18,
			RippleFrequency:  0.045,
			RippleSpeed:      3.2,
			RippleDecay:      0.012,
			FoldLift:         220,
			FoldBack:         140,
			FoldCompression:  0.45,
			MinCompression:   0.35,
			FadeStart:        0.55,
			WeaveDensity:     90,
			RimPower:         3,
			PointerSmoothing: 0.08,
			CameraDistance:   1400,
			Palette: Palette{
				BaseA:     "#2b2233",
				BaseB:     "#4a3b52",
				Thread:    "#c49a6c",
				Highlight: "#f3e6d3",
			},
		},
		Strands: StrandConfig{
			Points:    14,
			Length:    140,
			Width:     1.6,
			Amplitude: Range{Min: 6, Max: 14},
			Speed:     Range{Min: 0.6, Max: 1.3},
			Pull:      0.85,
			Seed:      7,
			Color:     "#d9c3a0",
		},
		Particles: ParticleConfig{
			Size:             Range{Min: 1.5, Max: 4},
			Speed:            Range{Min: 0.15, Max: 0.45},
			DriftRadius:      Range{Min: 8, Max: 28},
			Attraction:       24,
			PointerSmoothing: 0.02,
			RiseDistance:     180,
			FadeThreshold:    0.6,
			Seed:             11,
			Color:            "#fff4e0",
			BlendMode:        BlendAdd,
		},
	}
	if tier == TierMobile {
		cfg.ParticleCount = 60
		cfg.PixelDensityCap = 1.5
		cfg.Antialias = false
		cfg.StrandCount = 0
		cfg.Cloth.Cols = 24
		cfg.Cloth.Rows = 16
	}
	return cfg
}

// LoadConfig overlays a JSON document onto DefaultConfig(tier). Fields absent
// from the document keep their defaults.
func LoadConfig(jsonData []byte, tier DeviceTier) (Config, error) {
	cfg := DefaultConfig(tier)
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid knob, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if c.ParticleCount < 0 {
		return fmt.Errorf("%w: particleCount %d < 0", ErrInvalidConfig, c.ParticleCount)
	}
	if c.StrandCount < 0 {
		return fmt.Errorf("%w: strandCount %d < 0", ErrInvalidConfig, c.StrandCount)
	}
	if c.PixelDensityCap <= 0 {
		return fmt.Errorf("%w: pixelDensityCap %v <= 0", ErrInvalidConfig, c.PixelDensityCap)
	}
	if c.ParticleCount*4 > maxMeshVertices {
		return fmt.Errorf("%w: particleCount %d exceeds %d", ErrInvalidConfig, c.ParticleCount, maxMeshVertices/4)
	}
	cl := c.Cloth
	if cl.Cols < 1 || cl.Rows < 1 {
		return fmt.Errorf("%w: cloth tessellation %dx%d", ErrInvalidConfig, cl.Cols, cl.Rows)
	}
	if (cl.Cols+1)*(cl.Rows+1) > maxMeshVertices {
		return fmt.Errorf("%w: cloth tessellation %dx%d exceeds %d vertices",
			ErrInvalidConfig, cl.Cols, cl.Rows, maxMeshVertices)
	}
	if cl.Width <= 0 || cl.Height <= 0 {
		return fmt.Errorf("%w: cloth extents %vx%v", ErrInvalidConfig, cl.Width, cl.Height)
	}
	if cl.MinCompression <= 0 || cl.MinCompression > 1 {
		return fmt.Errorf("%w: minCompression %v outside (0, 1]", ErrInvalidConfig, cl.MinCompression)
	}
	// Rows must stay ordered at full fold: d/dpin of the folded Y is
	// Height + 2*pin*(Gravity - FoldLift), positive at pin 1.
	if 2*cl.FoldLift >= cl.Height+2*cl.Gravity {
		return fmt.Errorf("%w: foldLift %v must be < height/2+gravity %v",
			ErrInvalidConfig, cl.FoldLift, cl.Height/2+cl.Gravity)
	}
	// Largest forward Z: drape, both wind terms, ripple.
	if cl.CameraDistance <= cl.GravityForward+cl.WindAmplitude*(1+cl.WindDetail)+cl.RippleAmplitude {
		return fmt.Errorf("%w: cameraDistance %v too small for Z displacement", ErrInvalidConfig, cl.CameraDistance)
	}
	if _, err := cl.Palette.parse(); err != nil {
		return err
	}
	if c.StrandCount > 0 {
		if c.Strands.Points < 2 {
			return fmt.Errorf("%w: strand points %d < 2", ErrInvalidConfig, c.Strands.Points)
		}
		if c.StrandCount*c.Strands.Points*2 > maxMeshVertices {
			return fmt.Errorf("%w: strands exceed %d vertices", ErrInvalidConfig, maxMeshVertices)
		}
		if _, err := parseHexColor(c.Strands.Color); err != nil {
			return err
		}
	}
	if c.ParticleCount > 0 {
		if c.Particles.FadeThreshold <= 0 || c.Particles.FadeThreshold > 1 {
			return fmt.Errorf("%w: fadeThreshold %v outside (0, 1]", ErrInvalidConfig, c.Particles.FadeThreshold)
		}
		if _, err := parseHexColor(c.Particles.Color); err != nil {
			return err
		}
	}
	return nil
}
