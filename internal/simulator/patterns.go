package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Pattern shapes botnet activity over the simulated capture. Apply scales a
// base botnet share given the time elapsed since the capture started.
type Pattern interface {
	Apply(base float64, elapsed time.Duration) float64
	Name() string
}

func ParsePattern(name string, rng *rand.Rand) (Pattern, error) {
	switch name {
	case "", "steady":
		return &SteadyPattern{}, nil
	case "burst":
		return &BurstPattern{Start: 10 * time.Minute, Duration: 5 * time.Minute, Factor: 4}, nil
	case "gradual_rise":
		return &GradualRisePattern{PerMinute: 0.05, Max: 3}, nil
	case "random":
		return &RandomPattern{rng: rng}, nil
	case "sine_wave":
		return &SineWavePattern{Period: 10 * time.Minute, Amplitude: 0.8}, nil
	}
	return nil, fmt.Errorf("unknown pattern %q (want steady, burst, gradual_rise, random or sine_wave)", name)
}

// SteadyPattern - constant botnet share
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(base float64, _ time.Duration) float64 {
	return base
}

func (p *SteadyPattern) Name() string {
	return "steady"
}

// BurstPattern - quiet capture with one infection burst, ramped in and out
type BurstPattern struct {
	Start    time.Duration
	Duration time.Duration
	Factor   float64
}

func (p *BurstPattern) Apply(base float64, elapsed time.Duration) float64 {
	if elapsed < p.Start || elapsed >= p.Start+p.Duration || p.Duration <= 0 {
		return base * 0.2
	}

	// Triangle ramp peaking at the middle of the burst.
	progress := float64(elapsed-p.Start) / float64(p.Duration)
	ramp := 1 - math.Abs(2*progress-1)
	return base * (0.2 + ramp*(p.Factor-0.2))
}

func (p *BurstPattern) Name() string {
	return "burst"
}

// GradualRisePattern - spreading infection
type GradualRisePattern struct {
	PerMinute float64
	Max       float64
}

func (p *GradualRisePattern) Apply(base float64, elapsed time.Duration) float64 {
	modifier := math.Min(1+elapsed.Minutes()*p.PerMinute, p.Max)
	return base * modifier
}

func (p *GradualRisePattern) Name() string {
	return "gradual_rise"
}

// RandomPattern - unpredictable bursts and lulls
type RandomPattern struct {
	rng *rand.Rand
}

func (p *RandomPattern) Apply(base float64, _ time.Duration) float64 {
	return base * (0.5 + p.rng.Float64())
}

func (p *RandomPattern) Name() string {
	return "random"
}

// SineWavePattern - periodic C&C check-ins
type SineWavePattern struct {
	Period    time.Duration
	Amplitude float64
}

func (p *SineWavePattern) Apply(base float64, elapsed time.Duration) float64 {
	if p.Period <= 0 {
		return base
	}
	phase := float64(elapsed) / float64(p.Period) * 2 * math.Pi
	return math.Max(base*(1+p.Amplitude*math.Sin(phase)), 0)
}

func (p *SineWavePattern) Name() string {
	return "sine_wave"
}
