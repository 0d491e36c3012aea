package simulator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/flowlog"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
)

const (
	netflowRowTime = "2006-01-02 15:04:05.000"
	argusRowTime   = "2006/01/02 15:04:05.000000"

	groundTruthCell = "Label(Normal:Botnet:Background)"
	ctxCheckEvery   = 1000
)

// argusColumns precede the label columns of an Argus log.
var argusColumns = []string{
	"StartTime", "Dur", "Flgs", "Proto", "SrcAddr", "Sport", "Dir", "DstAddr",
	"Dport", "State", "sTos", "dTos", "TotPkts", "TotBytes", "SrcBytes", "DstBytes",
	"SrcPkts", "DstPkts", "Load", "SrcLoad", "DstLoad", "Loss", "SrcLoss", "DstLoss",
	"pLoss", "Rate", "SrcRate", "DstRate", "SIntPkt", "DIntPkt", "sTtl", "dTtl",
}

var netflowColumns = []string{
	"Date", "Time", "Durat", "Prot", "SrcAddr", "Dir", "DstAddr", "Flags",
	"Tos", "Packets", "Bytes", "Flows",
}

var protocols = []string{"TCP", "UDP", "ICMP"}

type Config struct {
	Layout flowlog.Layout
	Start  time.Time
	// Flows caps the number of rows. Duration, when set, also stops
	// generation once the simulated clock passes it.
	Flows          int
	Duration       time.Duration
	FlowsPerSecond float64
	Hosts          HostCounts
	// BotnetShare is the base fraction of flows sent by botnet hosts before
	// the pattern is applied. BackgroundShare is fixed.
	BotnetShare     float64
	BackgroundShare float64
	// CCShare is the fraction of flows from CC hosts labelled as C&C.
	CCShare   float64
	Pattern   Pattern
	Detectors []DetectorSim
	Seed      int64
}

func DefaultConfig() Config {
	return Config{
		Layout:          flowlog.LayoutNetflow,
		Start:           time.Date(2011, 8, 10, 9, 0, 0, 0, time.UTC),
		Flows:           10000,
		FlowsPerSecond:  10,
		Hosts:           HostCounts{Normal: 20, Botnet: 5, Background: 50, CC: 2},
		BotnetShare:     0.1,
		BackgroundShare: 0.5,
		CCShare:         0.3,
		Pattern:         &SteadyPattern{},
		Detectors: []DetectorSim{
			{Name: "Good", Negative: "Normal", Positive: "Botnet", TPR: 0.9, FPR: 0.02},
			{Name: "Noisy", Negative: "Normal", Positive: "Botnet", TPR: 0.7, FPR: 0.2},
		},
		Seed: 1,
	}
}

// Stats summarizes a generated log.
type Stats struct {
	Flows   int
	ByClass map[HostClass]int
	First   time.Time
	Last    time.Time
}

// Generator writes a labeled flow log whose detector columns are drawn from
// simulated detectors. Output is deterministic for a given seed.
type Generator struct {
	config Config
	rng    *rand.Rand
	hosts  *hostPool
}

func New(cfg Config) (*Generator, error) {
	if cfg.Layout != flowlog.LayoutNetflow && cfg.Layout != flowlog.LayoutArgus {
		return nil, fmt.Errorf("layout must be netflow or argus, got %q", cfg.Layout)
	}
	if cfg.Flows <= 0 {
		return nil, fmt.Errorf("flows must be positive")
	}
	if cfg.FlowsPerSecond <= 0 {
		return nil, fmt.Errorf("flows per second must be positive")
	}
	if err := cfg.Hosts.validate(); err != nil {
		return nil, err
	}
	for _, share := range []float64{cfg.BotnetShare, cfg.BackgroundShare, cfg.CCShare} {
		if share < 0 || share > 1 {
			return nil, fmt.Errorf("shares must be within [0, 1]")
		}
	}
	if len(cfg.Detectors) == 0 {
		return nil, fmt.Errorf("at least one detector is required")
	}
	seen := make(map[string]bool, len(cfg.Detectors))
	for _, d := range cfg.Detectors {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate detector %s", d.Name)
		}
		seen[d.Name] = true
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Pattern == nil {
		cfg.Pattern = &SteadyPattern{}
	}
	if rp, ok := cfg.Pattern.(*RandomPattern); ok && rp.rng == nil {
		rp.rng = rng
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultConfig().Start
	}

	return &Generator{
		config: cfg,
		rng:    rng,
		hosts:  newHostPool(cfg.Hosts),
	}, nil
}

// Header returns the header line without a trailing newline.
func (g *Generator) Header() string {
	cells := make([]string, 0, len(argusColumns)+len(g.config.Detectors)+1)
	if g.config.Layout == flowlog.LayoutArgus {
		cells = append(cells, argusColumns...)
	} else {
		cells = append(cells, netflowColumns...)
	}
	cells = append(cells, groundTruthCell)
	for _, d := range g.config.Detectors {
		cells = append(cells, d.headerCell())
	}
	return "#" + strings.Join(cells, g.separator())
}

func (g *Generator) separator() string {
	if g.config.Layout == flowlog.LayoutArgus {
		return ","
	}
	return " "
}

// Write emits the header and then rows with non-decreasing timestamps.
func (g *Generator) Write(ctx context.Context, w io.Writer) (*Stats, error) {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, g.Header()); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	stats := &Stats{ByClass: make(map[HostClass]int)}
	var offset time.Duration
	for i := 0; i < g.config.Flows; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		offset += time.Duration(g.rng.ExpFloat64() / g.config.FlowsPerSecond * float64(time.Second))
		if g.config.Duration > 0 && offset > g.config.Duration {
			break
		}
		ts := g.config.Start.Add(offset)

		host := g.hosts.pick(g.rng, g.classAt(offset))
		if _, err := fmt.Fprintln(bw, g.row(ts, host)); err != nil {
			return stats, fmt.Errorf("failed to write flow %d: %w", i+1, err)
		}

		if stats.Flows == 0 {
			stats.First = ts
		}
		stats.Last = ts
		stats.Flows++
		stats.ByClass[host.Class]++
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush flow log: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"layout":  g.config.Layout,
		"flows":   stats.Flows,
		"pattern": g.config.Pattern.Name(),
		"botnet":  stats.ByClass[HostBotnet],
	}).Info("Flow log generated")
	return stats, nil
}

func (g *Generator) classAt(elapsed time.Duration) HostClass {
	botnet := g.config.Pattern.Apply(g.config.BotnetShare, elapsed)
	if botnet > 1-g.config.BackgroundShare {
		botnet = 1 - g.config.BackgroundShare
	}

	r := g.rng.Float64()
	switch {
	case r < botnet:
		return HostBotnet
	case r < botnet+g.config.BackgroundShare:
		return HostBackground
	default:
		return HostNormal
	}
}

// groundTruth labels a flow in the CTU capture style. Normal hosts sometimes
// emit background flows before being identified. CC hosts mix C&C flows
// into their traffic.
func (g *Generator) groundTruth(host *HostSim, proto string) string {
	switch host.Class {
	case HostBotnet:
		if host.CC && g.rng.Float64() < g.config.CCShare {
			return "From-Botnet-V42-" + proto + "-CC"
		}
		return "From-Botnet-V42-" + proto + "-Attempt"
	case HostNormal:
		if g.rng.Float64() < 0.2 {
			return "Background-" + proto
		}
		return "From-Normal-V42-" + proto
	default:
		return "Background-Established-" + proto
	}
}

func (g *Generator) row(ts time.Time, host *HostSim) string {
	proto := protocols[g.rng.Intn(len(protocols))]
	dst := fmt.Sprintf("%d.%d.%d.%d", 1+g.rng.Intn(223), g.rng.Intn(256), g.rng.Intn(256), 1+g.rng.Intn(254))
	sport := 1024 + g.rng.Intn(64511)
	dport := []int{53, 80, 443, 6667, 25}[g.rng.Intn(5)]
	packets := 1 + g.rng.Intn(40)
	bytes := packets * (60 + g.rng.Intn(1400))
	dur := g.rng.Float64() * 5

	truth := g.groundTruth(host, proto)
	botnet := host.Class == HostBotnet

	var cells []string
	if g.config.Layout == flowlog.LayoutArgus {
		cells = make([]string, len(argusColumns), len(argusColumns)+1+len(g.config.Detectors))
		cells[0] = ts.Format(argusRowTime)
		cells[1] = fmt.Sprintf("%.6f", dur)
		cells[2] = "e"
		cells[3] = strings.ToLower(proto)
		cells[4] = host.IP
		cells[5] = fmt.Sprint(sport)
		cells[6] = "->"
		cells[7] = dst
		cells[8] = fmt.Sprint(dport)
		cells[9] = "CON"
		cells[12] = fmt.Sprint(packets)
		cells[13] = fmt.Sprint(bytes)
		cells[14] = fmt.Sprint(bytes / 2)
		cells = append(cells, "flow="+truth)
	} else {
		cells = []string{
			ts.Format(netflowRowTime),
			fmt.Sprintf("%.3f", dur),
			proto,
			fmt.Sprintf("%s:%d", host.IP, sport),
			"->",
			fmt.Sprintf("%s:%d", dst, dport),
			"INT",
			"0",
			fmt.Sprint(packets),
			fmt.Sprint(bytes),
			"1",
			truth,
		}
	}

	for _, d := range g.config.Detectors {
		cells = append(cells, d.predict(g.rng, botnet))
	}
	return strings.Join(cells, g.separator())
}
