package flowlog_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/internal/flowlog"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

const netflowLog = `#Date Time Durat Prot SrcAddr Dir DstAddr Flags Tos Packets Bytes Flows Label(Normal:Botnet:Background) Det(OK:Bad)
2011-08-10 09:46:53.047 0.000 UDP 10.0.0.1:53 -> 8.8.8.8:53 INT 0 1 64 1 Normal OK

# trailing comment
2011-08-10 09:47:10.500 1.000 TCP 10.0.0.2:4444 -> 1.2.3.4:80 S_ 0 2 120 1 Botnet-V42 Bad
`

func argusLog() string {
	header := []string{"#StartTime"}
	row := []string{"2011/08/10 09:46:53.047277"}
	for i := 1; i < 32; i++ {
		header = append(header, "f")
		row = append(row, "")
	}
	row[4] = "10.0.0.1"
	header = append(header, "Label(Normal:Botnet:Background)", "Det(OK:Bad)")
	row = append(row, "flow=Background-UDP-Established", "OK")
	return strings.Join(header, ",") + "\n" + strings.Join(row, ",") + "\n"
}

func TestDetectLayout(t *testing.T) {
	tests := []struct {
		name string
		line string
		want flowlog.Layout
	}{
		{"space separated", "#Date flow start Durat Label(a:b)", flowlog.LayoutNetflow},
		{"comma separated", "#StartTime,Dur,Proto,Label(a:b)", flowlog.LayoutArgus},
		{"single token", "#x", flowlog.LayoutArgus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flowlog.DetectLayout(tt.line))
		})
	}
}

func TestReader_Netflow(t *testing.T) {
	r := flowlog.NewReader(strings.NewReader(netflowLog), flowlog.LayoutAuto)

	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, flowlog.LayoutNetflow, h.Layout)
	assert.Equal(t, "Label(Normal:Botnet:Background)", h.Fields[12])
	assert.Equal(t, 12, h.Layout.LabelOffset())

	r.Bind(flowlog.Columns{GroundTruth: 12, Algorithms: map[string]int{"Det": 13}})

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Line)
	assert.Equal(t, time.Date(2011, 8, 10, 9, 46, 53, 47000000, time.UTC), rec.Timestamp)
	assert.Equal(t, "10.0.0.1", rec.SourceIP)
	assert.Equal(t, "Normal", rec.GroundTruth)
	assert.Equal(t, map[string]string{"Det": "OK"}, rec.Predictions)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Line)
	assert.Equal(t, "10.0.0.2", rec.SourceIP)
	assert.Equal(t, "Botnet-V42", rec.GroundTruth)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, r.Flows())
	assert.Equal(t, map[string]int{"Normal": 1, "Botnet-V42": 1}, r.LabelCounts())
}

func TestReader_Argus(t *testing.T) {
	r := flowlog.NewReader(strings.NewReader(argusLog()), flowlog.LayoutAuto)

	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, flowlog.LayoutArgus, h.Layout)
	assert.Equal(t, "Label(Normal:Botnet:Background)", h.Fields[32])

	r.Bind(flowlog.Columns{GroundTruth: 32, Algorithms: map[string]int{"Det": 33}})

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2011, 8, 10, 9, 46, 53, 47277000, time.UTC), rec.Timestamp)
	assert.Equal(t, "10.0.0.1", rec.SourceIP)
	assert.Equal(t, "Background-UDP-Established", rec.GroundTruth)
	assert.Equal(t, "OK", rec.Predictions["Det"])
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing header", "2011-08-10 09:46:53.047 0.000 UDP\n", 1},
		{"short line", "#a b c d e f g h i j k l Label(N:B) Det(O:B)\n2011-08-10 09:46:53 0.0 UDP 10.0.0.1\n", 2},
		{"bad timestamp", "#a b c d e f g h i j k l Label(N:B) Det(O:B)\n2011-13-10 09:46:53 0 UDP 10.0.0.1 -> 1.1.1.1 INT 0 1 1 1 N O\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := flowlog.NewReader(strings.NewReader(tt.input), flowlog.LayoutAuto)
			_, err := r.ReadHeader()
			if err == nil {
				r.Bind(flowlog.Columns{GroundTruth: 12, Algorithms: map[string]int{"Det": 13}})
				_, err = r.Next()
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrMalformedInput))

			var evalErr *models.EvalError
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, tt.line, evalErr.Line)
		})
	}
}

func TestReader_EmptyInput(t *testing.T) {
	r := flowlog.NewReader(strings.NewReader("\n\n"), flowlog.LayoutAuto)
	_, err := r.ReadHeader()
	assert.ErrorIs(t, err, models.ErrMalformedInput)
}

func TestLayout_SourceIP(t *testing.T) {
	tests := []struct {
		name   string
		layout flowlog.Layout
		addr   string
		want   string
	}{
		{"netflow with port", flowlog.LayoutNetflow, "147.32.84.165:1025", "147.32.84.165"},
		{"netflow without port", flowlog.LayoutNetflow, "147.32.84.165", "147.32.84.165"},
		{"netflow bracketed v6", flowlog.LayoutNetflow, "[fe80::1]:53", "fe80::1"},
		{"netflow bare v6", flowlog.LayoutNetflow, "fe80::1", "fe80::1"},
		{"argus keeps address", flowlog.LayoutArgus, "147.32.84.165", "147.32.84.165"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.layout.SourceIP([]string{"", "", "", "", tt.addr})
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLayout(t *testing.T) {
	l, err := flowlog.ParseLayout("Netflow")
	require.NoError(t, err)
	assert.Equal(t, flowlog.LayoutNetflow, l)

	l, err = flowlog.ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, flowlog.LayoutAuto, l)

	_, err = flowlog.ParseLayout("pcap")
	assert.Error(t, err)
}
