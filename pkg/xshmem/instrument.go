package xshmem

import (
	"context"
	"time"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/xshmem/api"
)

const instrumentationName = "github.com/srediag/xshmem"

// Metrics holds the Prometheus collectors shared by instrumented handles.
type Metrics struct {
	ops      *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xshmem",
			Name:      "operations_total",
			Help:      "SHMEM operations forwarded to the backend.",
		}, []string{"library", "op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xshmem",
			Name:      "operation_errors_total",
			Help:      "SHMEM operations that returned an error.",
		}, []string{"library", "op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "xshmem",
			Name:      "operation_duration_seconds",
			Help:      "Time spent inside backend SHMEM calls.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"library", "op"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.ops, m.errors, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// InstrumentOption configures Instrument.
type InstrumentOption func(*Instrumented)

// WithMetrics records Prometheus metrics into m.
func WithMetrics(m *Metrics) InstrumentOption {
	return func(i *Instrumented) { i.metrics = m }
}

// WithTracer emits one span per operation.
func WithTracer(t trace.Tracer) InstrumentOption {
	return func(i *Instrumented) { i.tracer = t }
}

// WithMeter records OpenTelemetry counters.
func WithMeter(m metric.Meter) InstrumentOption {
	return func(i *Instrumented) { i.meter = m }
}

// WithContext sets the parent context of emitted spans.
func WithContext(ctx context.Context) InstrumentOption {
	return func(i *Instrumented) { i.ctx = ctx }
}

// Instrumented decorates a handle with metrics and tracing. Calls and their
// errors pass through unchanged and no ordering is added.
type Instrumented struct {
	inner   api.OpenSHMEM
	ctx     context.Context
	metrics *Metrics
	tracer  trace.Tracer
	meter   metric.Meter
	otelOps metric.Int64Counter
	otelErr metric.Int64Counter
	lib     attribute.KeyValue
}

var _ api.OpenSHMEM = (*Instrumented)(nil)

// Instrument wraps h. Without options it only forwards.
func Instrument(h api.OpenSHMEM, opts ...InstrumentOption) *Instrumented {
	i := &Instrumented{
		inner:  h,
		ctx:    context.Background(),
		tracer: tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:  metricnoop.NewMeterProvider().Meter(instrumentationName),
		lib:    attribute.String("shmem.library", h.Library().String()),
	}
	for _, opt := range opts {
		opt(i)
	}
	var err error
	if i.otelOps, err = i.meter.Int64Counter("xshmem.operations"); err != nil {
		pkgLogger.Warnf("create otel counter: %v", err)
		i.otelOps, _ = metricnoop.NewMeterProvider().Meter(instrumentationName).Int64Counter("xshmem.operations")
	}
	if i.otelErr, err = i.meter.Int64Counter("xshmem.operation_errors"); err != nil {
		pkgLogger.Warnf("create otel counter: %v", err)
		i.otelErr, _ = metricnoop.NewMeterProvider().Meter(instrumentationName).Int64Counter("xshmem.operation_errors")
	}
	return i
}

// Unwrap returns the decorated handle.
func (i *Instrumented) Unwrap() api.OpenSHMEM { return i.inner }

func (i *Instrumented) observe(op string, fn func() error) error {
	ctx, span := i.tracer.Start(i.ctx, "shmem."+op, trace.WithAttributes(i.lib))
	defer span.End()
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(i.lib, attribute.String("shmem.op", op))
	i.otelOps.Add(ctx, 1, attrs)
	if i.metrics != nil {
		lib := i.inner.Library().String()
		i.metrics.ops.WithLabelValues(lib, op).Inc()
		i.metrics.duration.WithLabelValues(lib, op).Observe(elapsed.Seconds())
		if err != nil {
			i.metrics.errors.WithLabelValues(lib, op).Inc()
		}
	}
	if err != nil {
		i.otelErr.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (i *Instrumented) Library() api.Library { return i.inner.Library() }

func (i *Instrumented) Init() error {
	return i.observe("init", i.inner.Init)
}

// InitAttr forwards to the wrapped handle's attribute initializer.
func (i *Instrumented) InitAttr(attr *api.InitAttr) error {
	return i.observe("init_attr", func() error { return InitAttr(i.inner, attr) })
}

func (i *Instrumented) Finalize() error {
	return i.observe("finalize", i.inner.Finalize)
}

func (i *Instrumented) MyPE() int { return i.inner.MyPE() }
func (i *Instrumented) NPEs() int { return i.inner.NPEs() }

func (i *Instrumented) Put(dest unsafe.Pointer, source []int32, pe int) error {
	return i.observe("put", func() error { return i.inner.Put(dest, source, pe) })
}

func (i *Instrumented) Get(dest []int32, source unsafe.Pointer, pe int) error {
	return i.observe("get", func() error { return i.inner.Get(dest, source, pe) })
}

func (i *Instrumented) IntP(dest unsafe.Pointer, value int32, pe int) error {
	return i.observe("int_p", func() error { return i.inner.IntP(dest, value, pe) })
}

func (i *Instrumented) BarrierAll() error {
	return i.observe("barrier_all", i.inner.BarrierAll)
}

func (i *Instrumented) Malloc(size uintptr) (ptr unsafe.Pointer, err error) {
	err = i.observe("malloc", func() error {
		ptr, err = i.inner.Malloc(size)
		return err
	})
	return ptr, err
}

func (i *Instrumented) Calloc(count, size uintptr) (ptr unsafe.Pointer, err error) {
	err = i.observe("calloc", func() error {
		ptr, err = i.inner.Calloc(count, size)
		return err
	})
	return ptr, err
}

func (i *Instrumented) Free(ptr unsafe.Pointer) error {
	return i.observe("free", func() error { return i.inner.Free(ptr) })
}
