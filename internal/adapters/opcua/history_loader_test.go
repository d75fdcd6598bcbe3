package opcua

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gopcua/opcua/ua"

	"github.com/ghalamif/SignalGuard/internal/domain"
)

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{
		Endpoint: "opc.tcp://localhost:4840",
		Nodes:    []NodeConfig{{NodeID: "ns=2;s=Speed"}},
	}
	cfg.ApplyDefaults()
	if cfg.SecurityMode != "None" || cfg.SecurityPolicy != "None" {
		t.Fatalf("unexpected security defaults: %q %q", cfg.SecurityMode, cfg.SecurityPolicy)
	}
	if cfg.Timeout != 30*time.Second || cfg.Lookback != time.Hour || cfg.MaxValuesPerRead != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Nodes[0].Signal != "ns=2;s=Speed" {
		t.Fatalf("signal should default to node id, got %q", cfg.Nodes[0].Signal)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bad := []Config{
		{Nodes: []NodeConfig{{NodeID: "ns=2;s=A", Signal: "A"}}},
		{Endpoint: "opc.tcp://x"},
		{Endpoint: "opc.tcp://x", Nodes: []NodeConfig{{NodeID: "ns=2;s=A", Signal: "A"}, {NodeID: "ns=2;s=B", Signal: "A"}}},
		{
			Endpoint: "opc.tcp://x",
			Nodes:    []NodeConfig{{NodeID: "ns=2;s=A", Signal: "A"}},
			Start:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			End:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestConfigWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := Config{Lookback: 15 * time.Minute}

	start, end := cfg.Window(now)
	if !end.Equal(now) || !start.Equal(now.Add(-15*time.Minute)) {
		t.Fatalf("unexpected window %s..%s", start, end)
	}

	cfg.Start = now.Add(-2 * time.Hour)
	cfg.End = now.Add(-time.Hour)
	start, end = cfg.Window(now)
	if !start.Equal(cfg.Start) || !end.Equal(cfg.End) {
		t.Fatalf("explicit window not honoured: %s..%s", start, end)
	}
}

func TestNormalizeSecurityMode(t *testing.T) {
	cases := map[string]string{
		"":                 "None",
		"sign":             "Sign",
		"SignAndEncrypt":   "SignAndEncrypt",
		"sign_and_encrypt": "SignAndEncrypt",
		"bogus":            "None",
	}
	for in, want := range cases {
		if got := normalizeSecurityMode(in); got != want {
			t.Fatalf("normalizeSecurityMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToSample(t *testing.T) {
	src := time.UnixMilli(1_700_000_000_123)
	srv := time.UnixMilli(1_700_000_000_456)

	tests := []struct {
		name string
		dv   *ua.DataValue
		want domain.Sample
		ok   bool
	}{
		{
			name: "source timestamp",
			dv:   &ua.DataValue{Value: ua.MustVariant(float32(1.5)), SourceTimestamp: src, ServerTimestamp: srv},
			want: domain.Sample{Timestamp: src.UnixMilli(), Signal: "S", Value: 1.5},
			ok:   true,
		},
		{
			name: "server fallback",
			dv:   &ua.DataValue{Value: ua.MustVariant(int32(-4)), ServerTimestamp: srv},
			want: domain.Sample{Timestamp: srv.UnixMilli(), Signal: "S", Value: -4},
			ok:   true,
		},
		{
			name: "string value",
			dv:   &ua.DataValue{Value: ua.MustVariant("on"), SourceTimestamp: src},
		},
		{
			name: "bad quality",
			dv:   &ua.DataValue{Value: ua.MustVariant(1.0), SourceTimestamp: src, Status: ua.StatusBadNodeIDUnknown},
		},
		{
			name: "no timestamp",
			dv:   &ua.DataValue{Value: ua.MustVariant(1.0)},
		},
		{name: "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toSample("S", tt.dv)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("sample mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type fakeHistory struct {
	pages map[string][][]*ua.DataValue
	calls []string
	err   error
}

func (f *fakeHistory) HistoryReadRawModified(_ context.Context, nodes []*ua.HistoryReadValueID, _ *ua.ReadRawModifiedDetails) (*ua.HistoryReadResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := nodes[0].NodeID.String()
	f.calls = append(f.calls, id+"#"+string(nodes[0].ContinuationPoint))

	pages := f.pages[id]
	page := 0
	if cp := nodes[0].ContinuationPoint; len(cp) > 0 {
		page = int(cp[0] - '0')
	}
	res := &ua.HistoryReadResult{
		StatusCode:  ua.StatusOK,
		HistoryData: &ua.ExtensionObject{Value: &ua.HistoryData{DataValues: pages[page]}},
	}
	if page+1 < len(pages) {
		res.ContinuationPoint = []byte{byte('0' + page + 1)}
	}
	return &ua.HistoryReadResponse{Results: []*ua.HistoryReadResult{res}}, nil
}

func newTestLoader(t *testing.T, reader historyReader) *HistoryLoader {
	t.Helper()
	l, err := NewHistoryLoader(Config{
		Endpoint: "opc.tcp://historian:4840",
		Nodes: []NodeConfig{
			{NodeID: "ns=2;s=Speed", Signal: "EngineSpeed"},
			{NodeID: "ns=2;s=Temp", Signal: "CoolantTemp"},
		},
	})
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	l.dial = func(context.Context) (historyReader, func(context.Context) error, error) {
		return reader, func(context.Context) error { return nil }, nil
	}
	return l
}

func TestLoadSamplesFollowsContinuationPoints(t *testing.T) {
	at := func(ms int64) time.Time { return time.UnixMilli(ms) }
	fake := &fakeHistory{pages: map[string][][]*ua.DataValue{
		"ns=2;s=Speed": {
			{{Value: ua.MustVariant(100.0), SourceTimestamp: at(10)}},
			{{Value: ua.MustVariant("skip"), SourceTimestamp: at(20)}, {Value: ua.MustVariant(200.0), SourceTimestamp: at(30)}},
		},
		"ns=2;s=Temp": {
			{{Value: ua.MustVariant(uint16(80)), SourceTimestamp: at(15)}},
		},
	}}

	l := newTestLoader(t, fake)
	if l.Source() != "opcua:opc.tcp://historian:4840" {
		t.Fatalf("unexpected source %q", l.Source())
	}
	got, err := l.LoadSamples(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []domain.Sample{
		{Timestamp: 10, Signal: "EngineSpeed", Value: 100},
		{Timestamp: 30, Signal: "EngineSpeed", Value: 200},
		{Timestamp: 15, Signal: "CoolantTemp", Value: 80},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("samples mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ns=2;s=Speed#", "ns=2;s=Speed#1", "ns=2;s=Temp#"}, fake.calls); diff != "" {
		t.Fatalf("unexpected read sequence (-want +got):\n%s", diff)
	}
}

func TestLoadSamplesReadError(t *testing.T) {
	boom := errors.New("secure channel closed")
	_, err := newTestLoader(t, &fakeHistory{err: boom}).LoadSamples(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}
