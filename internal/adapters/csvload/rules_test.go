package csvload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghalamif/SignalGuard/internal/domain"
)

func TestReadRules(t *testing.T) {
	data := `signal_name,min_value,max_value,fault_delay_ms
EngineSpeed, 0, 6500, 200
# coolant limits from the bench sheet
CoolantTemp,-40,110.5,1000
BatteryVoltage,11.5,14.8,0
`
	set, err := ReadRules(context.Background(), strings.NewReader(data), "signals.csv")
	if err != nil {
		t.Fatalf("ReadRules: %v", err)
	}

	want := []domain.Rule{
		{Signal: "EngineSpeed", Min: 0, Max: 6500, Delay: 200},
		{Signal: "CoolantTemp", Min: -40, Max: 110.5, Delay: 1000},
		{Signal: "BatteryVoltage", Min: 11.5, Max: 14.8, Delay: 0},
	}
	if diff := cmp.Diff(want, set.Rules()); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRulesCustomLayout(t *testing.T) {
	data := "\ufeffname;lo;hi;extra;delay\nS;1;2;ignored;30\n"
	set, err := ReadRules(context.Background(), strings.NewReader(data), "rules.txt",
		WithDelimiter(';'),
		WithRuleColumns(RuleColumns{Signal: "name", Min: "lo", Max: "hi", Delay: "delay"}),
	)
	if err != nil {
		t.Fatalf("ReadRules: %v", err)
	}
	r, ok := set.Lookup("S")
	if !ok || r.Min != 1 || r.Max != 2 || r.Delay != 30 {
		t.Fatalf("unexpected rule %+v ok=%v", r, ok)
	}
}

func TestReadRulesErrors(t *testing.T) {
	header := "signal_name,min_value,max_value,fault_delay_ms\n"
	tests := []struct {
		name    string
		data    string
		wantErr error
		line    int
		field   string
	}{
		{
			name:    "bad min",
			data:    header + "S,abc,10,100\n",
			wantErr: domain.ErrMalformedRule,
			line:    2,
			field:   "min_value",
		},
		{
			name:    "fractional delay",
			data:    header + "S,0,10,100\nT,0,10,1.5\n",
			wantErr: domain.ErrMalformedRule,
			line:    3,
			field:   "fault_delay_ms",
		},
		{
			name:    "negative delay",
			data:    header + "S,0,10,-5\n",
			wantErr: domain.ErrMalformedRule,
			line:    2,
			field:   "fault_delay_ms",
		},
		{
			name:    "inverted range",
			data:    header + "S,10,0,100\n",
			wantErr: domain.ErrMalformedRule,
			line:    2,
			field:   "max_value",
		},
		{
			name:    "empty signal",
			data:    header + ",0,10,100\n",
			wantErr: domain.ErrMalformedRule,
			line:    2,
			field:   "signal_name",
		},
		{
			name:    "short record",
			data:    header + "S,0,10\n",
			wantErr: domain.ErrMalformedRule,
			line:    2,
			field:   "fault_delay_ms",
		},
		{
			name:    "missing column",
			data:    "signal_name,min_value,max_value\nS,0,10\n",
			wantErr: domain.ErrMalformedRule,
			line:    1,
			field:   "fault_delay_ms",
		},
		{
			name:    "duplicate signal",
			data:    header + "S,0,10,100\nT,0,1,0\nS,0,20,100\n",
			wantErr: domain.ErrDuplicateSignalRule,
			line:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRules(context.Background(), strings.NewReader(tt.data), "signals.csv")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			var mr *domain.MalformedRuleError
			var dup *domain.DuplicateSignalRuleError
			switch {
			case errors.As(err, &mr):
				if mr.Line != tt.line || mr.Field != tt.field || mr.Source != "signals.csv" {
					t.Fatalf("unexpected location: %+v", mr)
				}
			case errors.As(err, &dup):
				if dup.Line != tt.line || dup.FirstLine != 2 || dup.Signal != "S" {
					t.Fatalf("unexpected duplicate: %+v", dup)
				}
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestReadRulesEmptyFile(t *testing.T) {
	if _, err := ReadRules(context.Background(), strings.NewReader(""), "empty.csv"); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestReadRulesHeaderOnly(t *testing.T) {
	set, err := ReadRules(context.Background(), strings.NewReader("signal_name,min_value,max_value,fault_delay_ms\n"), "signals.csv")
	if err != nil {
		t.Fatalf("ReadRules: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("expected no rules, got %d", set.Len())
	}
}

func TestRuleLoaderFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.csv")
	data := "signal_name\tmin_value\tmax_value\tfault_delay_ms\nS\t0\t10\t100\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := NewRuleLoader(path, WithDelimiter('\t'))
	if l.Source() != path {
		t.Fatalf("unexpected source %s", l.Source())
	}
	set, err := l.LoadRules(context.Background())
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 rule, got %d", set.Len())
	}

	if _, err := NewRuleLoader(filepath.Join(t.TempDir(), "missing.csv")).LoadRules(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := map[string]rune{
		"":          ',',
		"comma":     ',',
		";":         ';',
		"semicolon": ';',
		"tab":       '\t',
		`\t`:        '\t',
		"|":         '|',
		":":         ':',
	}
	for in, want := range tests {
		got, err := ParseDelimiter(in)
		if err != nil || got != want {
			t.Fatalf("ParseDelimiter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{`"`, "ab", "\n"} {
		if _, err := ParseDelimiter(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
