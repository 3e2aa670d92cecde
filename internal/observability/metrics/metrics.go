package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	downlineResolutions metric.Int64Counter
	downlineDepth       metric.Int64Histogram
	reportBuilds        metric.Int64Counter
	reportDuration      metric.Float64Histogram
	exportRows          metric.Int64Counter
	rateLimitDenied     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "agencydesk"
	}
	meter := provider.Meter(name)

	downlineResolutions, err := meter.Int64Counter("agencydesk_downline_resolutions_total")
	if err != nil {
		return nil, err
	}
	downlineDepth, err := meter.Int64Histogram("agencydesk_downline_depth")
	if err != nil {
		return nil, err
	}
	reportBuilds, err := meter.Int64Counter("agencydesk_report_builds_total")
	if err != nil {
		return nil, err
	}
	reportDuration, err := meter.Float64Histogram("agencydesk_report_build_seconds")
	if err != nil {
		return nil, err
	}
	exportRows, err := meter.Int64Counter("agencydesk_export_rows_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("agencydesk_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		downlineResolutions: downlineResolutions,
		downlineDepth:       downlineDepth,
		reportBuilds:        reportBuilds,
		reportDuration:      reportDuration,
		exportRows:          exportRows,
		rateLimitDenied:     rateLimitDenied,
	}, nil
}

// RecordDownlineResolution records one downline closure computation.
func (m *Metrics) RecordDownlineResolution(ctx context.Context, depth int, truncated bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.Bool("truncated", truncated))
	m.downlineResolutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.downlineDepth.Record(ctx, int64(depth))
}

// RecordReportBuild records one aggregation pass for the given report kind.
func (m *Metrics) RecordReportBuild(ctx context.Context, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("report", strings.TrimSpace(kind)))
	m.reportBuilds.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.reportDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordExportRows records the size of an exported report.
func (m *Metrics) RecordExportRows(ctx context.Context, kind string, rows int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("report", strings.TrimSpace(kind)))
	m.exportRows.Add(ctx, int64(rows), metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, orgID, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("org_id", strings.TrimSpace(orgID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"org_id":    {},
	"endpoint":  {},
	"report":    {},
	"truncated": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
