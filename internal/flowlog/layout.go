package flowlog

import (
	"fmt"
	"net"
	"strings"
	"time"
)

type Layout string

const (
	LayoutAuto    Layout = "auto"
	LayoutNetflow Layout = "netflow"
	LayoutArgus   Layout = "argus"
)

const (
	NetflowLabelOffset = 12
	ArgusLabelOffset   = 32

	netflowTimeLayout = "2006-01-02 15:04:05"
	argusTimeLayout   = "2006/01/02 15:04:05"

	sourceIPField = 4
	argusFlowTag  = "flow="
)

func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(s)); l {
	case "", LayoutAuto:
		return LayoutAuto, nil
	case LayoutNetflow, LayoutArgus:
		return l, nil
	}
	return "", fmt.Errorf("unknown input format %q (want auto, netflow or argus)", s)
}

// DetectLayout picks Netflow when a line has more space-separated than
// comma-separated fields.
func DetectLayout(line string) Layout {
	if len(strings.Fields(line)) > len(strings.Split(line, ",")) {
		return LayoutNetflow
	}
	return LayoutArgus
}

// LabelOffset is the first field holding a label column.
func (l Layout) LabelOffset() int {
	if l == LayoutNetflow {
		return NetflowLabelOffset
	}
	return ArgusLabelOffset
}

// Split tokenizes one line.
func (l Layout) Split(line string) []string {
	if l == LayoutNetflow {
		return strings.Fields(line)
	}
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// Timestamp parses the flow start time from split fields.
func (l Layout) Timestamp(fields []string) (time.Time, string, error) {
	var raw, layout string
	if l == LayoutNetflow {
		if len(fields) < 2 {
			return time.Time{}, "", fmt.Errorf("want date and time fields, got %d fields", len(fields))
		}
		raw, layout = fields[0]+" "+fields[1], netflowTimeLayout
	} else {
		if len(fields) < 1 {
			return time.Time{}, "", fmt.Errorf("missing timestamp field")
		}
		raw, layout = fields[0], argusTimeLayout
	}
	t, err := time.ParseInLocation(layout, raw, time.UTC)
	return t, raw, err
}

// SourceIP extracts the source address, dropping a Netflow ":port" suffix.
func (l Layout) SourceIP(fields []string) (string, bool) {
	if len(fields) <= sourceIPField {
		return "", false
	}
	ip := fields[sourceIPField]
	if l == LayoutNetflow {
		ip = stripPort(ip)
	}
	return ip, ip != ""
}

// GroundTruth normalizes a ground-truth cell. Argus cells carry a
// "flow=" tag in front of the label.
func (l Layout) GroundTruth(cell string) string {
	if l == LayoutArgus {
		if _, after, found := strings.Cut(cell, argusFlowTag); found {
			return after
		}
	}
	return cell
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	if strings.Count(addr, ":") == 1 {
		return addr[:strings.Index(addr, ":")]
	}
	return addr
}
