package simulator

import (
	"fmt"
	"math/rand"
)

type HostClass string

const (
	HostNormal     HostClass = "normal"
	HostBotnet     HostClass = "botnet"
	HostBackground HostClass = "background"
)

// HostSim is one simulated source address. Botnet hosts flagged CC carry
// C&C traffic.
type HostSim struct {
	IP    string
	Class HostClass
	CC    bool
}

type HostCounts struct {
	Normal     int
	Botnet     int
	Background int
	// CC is how many of the botnet hosts talk to the C&C server.
	CC int
}

func (c HostCounts) validate() error {
	if c.Normal < 0 || c.Botnet < 0 || c.Background < 0 || c.CC < 0 {
		return fmt.Errorf("host counts must not be negative")
	}
	if c.Normal+c.Botnet+c.Background == 0 {
		return fmt.Errorf("at least one host is required")
	}
	if c.CC > c.Botnet {
		return fmt.Errorf("cc hosts (%d) exceed botnet hosts (%d)", c.CC, c.Botnet)
	}
	return nil
}

// hostPool groups hosts by class. Addresses are unique across the pool:
// 10.0.x.y for normal, 147.32.x.y for botnet, 192.168.x.y for background.
type hostPool struct {
	normal     []*HostSim
	botnet     []*HostSim
	background []*HostSim
}

func newHostPool(counts HostCounts) *hostPool {
	p := &hostPool{}
	for i := 0; i < counts.Normal; i++ {
		p.normal = append(p.normal, &HostSim{IP: address(10, 0, i), Class: HostNormal})
	}
	for i := 0; i < counts.Botnet; i++ {
		p.botnet = append(p.botnet, &HostSim{IP: address(147, 32, i), Class: HostBotnet, CC: i < counts.CC})
	}
	for i := 0; i < counts.Background; i++ {
		p.background = append(p.background, &HostSim{IP: address(192, 168, i), Class: HostBackground})
	}
	return p
}

func address(a, b, i int) string {
	return fmt.Sprintf("%d.%d.%d.%d", a, b, i/250, i%250+1)
}

// pick draws a host of the wanted class, falling back to any non-empty class.
func (p *hostPool) pick(rng *rand.Rand, class HostClass) *HostSim {
	order := map[HostClass][][]*HostSim{
		HostNormal:     {p.normal, p.background, p.botnet},
		HostBotnet:     {p.botnet, p.normal, p.background},
		HostBackground: {p.background, p.normal, p.botnet},
	}[class]
	for _, hosts := range order {
		if len(hosts) > 0 {
			return hosts[rng.Intn(len(hosts))]
		}
	}
	return nil
}
