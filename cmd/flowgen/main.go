package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/flowlog"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/simulator"
)

// detectorFlags collects repeated -detector Name:TPR:FPR flags.
type detectorFlags []simulator.DetectorSim

func (d *detectorFlags) String() string {
	names := make([]string, len(*d))
	for i, det := range *d {
		names[i] = det.Name
	}
	return strings.Join(names, ",")
}

func (d *detectorFlags) Set(v string) error {
	det, err := simulator.ParseDetector(v)
	if err != nil {
		return err
	}
	*d = append(*d, det)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := simulator.DefaultConfig()

	layout := flag.String("format", "netflow", "output format (netflow or argus)")
	output := flag.String("o", "", "output file (default stdout)")
	flows := flag.Int("flows", defaults.Flows, "number of flows to generate")
	duration := flag.Duration("duration", 0, "stop once the simulated capture is this long")
	rate := flag.Float64("rate", defaults.FlowsPerSecond, "mean flows per second")
	start := flag.String("start", defaults.Start.Format(time.RFC3339), "capture start time (RFC3339)")
	normal := flag.Int("normal-hosts", defaults.Hosts.Normal, "normal hosts")
	botnet := flag.Int("botnet-hosts", defaults.Hosts.Botnet, "botnet hosts")
	background := flag.Int("background-hosts", defaults.Hosts.Background, "background hosts")
	cc := flag.Int("cc-hosts", defaults.Hosts.CC, "botnet hosts with C&C traffic")
	botnetShare := flag.Float64("botnet-share", defaults.BotnetShare, "base fraction of flows from botnet hosts")
	backgroundShare := flag.Float64("background-share", defaults.BackgroundShare, "fraction of flows from background hosts")
	pattern := flag.String("pattern", "steady", "botnet activity pattern (steady, burst, gradual_rise, random, sine_wave)")
	seed := flag.Int64("seed", defaults.Seed, "random seed")
	logLevel := flag.String("log-level", "info", "log level")
	var detectors detectorFlags
	flag.Var(&detectors, "detector", "simulated detector Name:TPR:FPR (repeatable)")
	flag.Parse()

	logger.Setup(*logLevel, "development")

	l, err := flowlog.ParseLayout(*layout)
	if err != nil {
		return err
	}
	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}
	p, err := simulator.ParsePattern(*pattern, rand.New(rand.NewSource(*seed)))
	if err != nil {
		return err
	}

	cfg := simulator.Config{
		Layout:          l,
		Start:           startAt.UTC(),
		Flows:           *flows,
		Duration:        *duration,
		FlowsPerSecond:  *rate,
		Hosts:           simulator.HostCounts{Normal: *normal, Botnet: *botnet, Background: *background, CC: *cc},
		BotnetShare:     *botnetShare,
		BackgroundShare: *backgroundShare,
		CCShare:         defaults.CCShare,
		Pattern:         p,
		Detectors:       defaults.Detectors,
		Seed:            *seed,
	}
	if len(detectors) > 0 {
		cfg.Detectors = detectors
	}

	gen, err := simulator.New(cfg)
	if err != nil {
		return fmt.Errorf("invalid generator config: %w", err)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := gen.Write(ctx, w)
	if err != nil {
		return err
	}
	logger.Infof("Wrote %d flows spanning %s", stats.Flows, stats.Last.Sub(stats.First))
	return nil
}
