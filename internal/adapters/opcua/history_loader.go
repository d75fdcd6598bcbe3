package opcua

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// historyReader is the subset of *opcua.Client used for raw history reads.
type historyReader interface {
	HistoryReadRawModified(ctx context.Context, nodes []*ua.HistoryReadValueID, details *ua.ReadRawModifiedDetails) (*ua.HistoryReadResponse, error)
}

type HistoryLoader struct {
	cfg Config
	obs ports.Observability
	now func() time.Time

	// dial opens a session; replaced in tests.
	dial func(ctx context.Context) (historyReader, func(context.Context) error, error)
}

type Option func(*HistoryLoader)

func WithObservability(obs ports.Observability) Option {
	return func(l *HistoryLoader) {
		if obs != nil {
			l.obs = obs
		}
	}
}

func NewHistoryLoader(cfg Config, opts ...Option) (*HistoryLoader, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &HistoryLoader{
		cfg: cfg,
		obs: ports.NopObservability{},
		now: time.Now,
	}
	l.dial = l.connect
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *HistoryLoader) Source() string { return "opcua:" + l.cfg.Endpoint }

// LoadSamples reads the raw history of every configured node over the
// configured window.
func (l *HistoryLoader) LoadSamples(ctx context.Context) ([]domain.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	reader, closeFn, err := l.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := closeFn(closeCtx); err != nil && !errors.Is(err, context.Canceled) {
			l.obs.LogError("opcua_close_failed", err)
		}
	}()

	start, end := l.cfg.Window(l.now())
	details := &ua.ReadRawModifiedDetails{
		IsReadModified:   false,
		StartTime:        start,
		EndTime:          end,
		NumValuesPerNode: l.cfg.MaxValuesPerRead,
		ReturnBounds:     false,
	}

	var out []domain.Sample
	for _, node := range l.cfg.Nodes {
		samples, err := l.readNode(ctx, reader, node, details)
		if err != nil {
			return nil, err
		}
		l.obs.LogInfo("opcua_history_read",
			ports.Field{Key: "node_id", Value: node.NodeID},
			ports.Field{Key: "signal", Value: node.Signal},
			ports.Field{Key: "samples", Value: len(samples)},
		)
		out = append(out, samples...)
	}
	return out, nil
}

func (l *HistoryLoader) readNode(ctx context.Context, reader historyReader, node NodeConfig, details *ua.ReadRawModifiedDetails) ([]domain.Sample, error) {
	nodeID, err := ua.ParseNodeID(node.NodeID)
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", node.NodeID, err)
	}

	var (
		out          []domain.Sample
		continuation []byte
	)
	for {
		res, err := reader.HistoryReadRawModified(ctx, []*ua.HistoryReadValueID{{
			NodeID:            nodeID,
			DataEncoding:      &ua.QualifiedName{},
			ContinuationPoint: continuation,
		}}, details)
		if err != nil {
			return nil, fmt.Errorf("history read %q: %w", node.NodeID, err)
		}
		if res == nil || len(res.Results) == 0 {
			return nil, fmt.Errorf("history read %q failed: empty result", node.NodeID)
		}
		result := res.Results[0]
		if isBad(result.StatusCode) {
			return nil, fmt.Errorf("history read %q failed: %s", node.NodeID, result.StatusCode)
		}

		for _, dv := range historyValues(result) {
			s, ok := toSample(node.Signal, dv)
			if !ok {
				l.obs.LogInfo("opcua_value_skipped",
					ports.Field{Key: "node_id", Value: node.NodeID},
					ports.Field{Key: "type", Value: fmt.Sprintf("%T", variantValue(dv))},
				)
				continue
			}
			out = append(out, s)
		}

		if len(result.ContinuationPoint) == 0 {
			return out, nil
		}
		continuation = result.ContinuationPoint
	}
}

func (l *HistoryLoader) connect(ctx context.Context) (historyReader, func(context.Context) error, error) {
	client, err := opcua.NewClient(l.cfg.Endpoint, l.buildClientOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("opcua connect: %w", err)
	}
	return client, client.Close, nil
}

func (l *HistoryLoader) buildClientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(l.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(l.cfg.SecurityPolicy)),
		opcua.ApplicationName(l.cfg.ApplicationName),
		opcua.RequestTimeout(l.cfg.Timeout),
	}
	if l.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(l.cfg.Username, l.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func historyValues(result *ua.HistoryReadResult) []*ua.DataValue {
	if result == nil || result.HistoryData == nil {
		return nil
	}
	data, ok := result.HistoryData.Value.(*ua.HistoryData)
	if !ok || data == nil {
		return nil
	}
	return data.DataValues
}

// toSample converts a historized value. Bad-quality and non-numeric values
// are rejected.
func toSample(signal string, dv *ua.DataValue) (domain.Sample, bool) {
	if dv == nil || isBad(dv.Status) {
		return domain.Sample{}, false
	}
	fv, ok := variantToFloat(dv.Value)
	if !ok {
		return domain.Sample{}, false
	}
	ts := dv.SourceTimestamp
	if ts.IsZero() {
		ts = dv.ServerTimestamp
	}
	if ts.IsZero() {
		return domain.Sample{}, false
	}
	return domain.Sample{Timestamp: ts.UnixMilli(), Signal: signal, Value: fv}, true
}

func variantValue(dv *ua.DataValue) any {
	if dv == nil || dv.Value == nil {
		return nil
	}
	return dv.Value.Value()
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// isBad reports whether the severity bits of code mark it Bad.
func isBad(code ua.StatusCode) bool {
	return uint32(code)&0x80000000 != 0
}

var _ ports.SampleLoader = (*HistoryLoader)(nil)
