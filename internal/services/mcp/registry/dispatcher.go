package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/mcptoolbox/internal/platform/errors"
	"github.com/louisbranch/mcptoolbox/internal/platform/logging"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/domain"
)

const instrumentationName = "github.com/louisbranch/mcptoolbox/internal/services/mcp/registry"

type limiter interface {
	Allow(ctx context.Context, key string) bool
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Logger         *logging.Entry
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// RateLimit caps tool calls per second across all tools. Zero disables
	// limiting.
	RateLimit int
	// RateBurst allows short bursts above RateLimit. Defaults to RateLimit.
	RateBurst int
}

// Dispatcher turns one tool call into one result.
type Dispatcher struct {
	registry *Registry
	log      *logging.Entry
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	limiter  limiter

	mu       sync.Mutex
	draining bool
	inFlight int
	idle     chan struct{}
}

// NewDispatcher builds a dispatcher over registry.
func NewDispatcher(registry *Registry, opts DispatcherOptions) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter("mcp.tool.calls",
		metric.WithDescription("Number of tool calls by tool and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create call counter: %w", err)
	}
	duration, err := meter.Float64Histogram("mcp.tool.duration",
		metric.WithDescription("Tool call latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	d := &Dispatcher{
		registry: registry,
		log:      logging.Named(opts.Logger, "dispatcher"),
		tracer:   tp.Tracer(instrumentationName),
		calls:    calls,
		duration: duration,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = opts.RateLimit
		}
		d.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     opts.RateLimit,
			Burst:    burst,
			Interval: time.Second,
		})
	}
	return d, nil
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// DispatchMap is Dispatch for callers holding decoded arguments.
func (d *Dispatcher) DispatchMap(ctx context.Context, name string, arguments map[string]any) *mcp.CallToolResult {
	if arguments == nil {
		return d.Dispatch(ctx, name, nil)
	}
	raw, err := json.Marshal(arguments)
	if err != nil {
		return errorResult(apperrors.Wrap(apperrors.CodeInvalidInput, "Invalid input for "+name, err))
	}
	return d.Dispatch(ctx, name, raw)
}

// Dispatch resolves name, decodes arguments, runs the handler and wraps its
// output. It never returns nil and never panics.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, arguments json.RawMessage) *mcp.CallToolResult {
	if ctx == nil {
		ctx = context.Background()
	}
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "mcp.tool/"+name, trace.WithAttributes(
		attribute.String("mcp.tool.name", name),
		attribute.String("mcp.call.id", callID),
	))
	defer span.End()

	result, err := d.dispatch(ctx, name, arguments)

	elapsed := time.Since(start)
	attrs := metric.WithAttributes(
		attribute.String("tool", name),
		attribute.Bool("error", result.IsError),
	)
	d.calls.Add(ctx, 1, attrs)
	d.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

	entry := d.log.WithFields(logging.Fields{
		"tool":     name,
		"call_id":  callID,
		"duration": elapsed,
	})
	if err != nil {
		code := apperrors.GetCode(err)
		span.SetAttributes(attribute.String("mcp.error.code", string(code)))
		span.SetStatus(codes.Error, err.Error())
		entry.WithFields(logging.Fields{
			"code":      code,
			"retryable": code.Retryable(),
		}).WithError(err).Warn("tool call failed")
	} else {
		entry.Debug("tool call completed")
	}
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	if !d.begin() {
		err := apperrors.New(apperrors.CodeShuttingDown, "Server is shutting down")
		return errorResult(err), err
	}
	defer d.end()

	if d.limiter != nil && !d.limiter.Allow(ctx, "tools") {
		err := apperrors.New(apperrors.CodeRateLimited, "Rate limit exceeded, retry later")
		return errorResult(err), err
	}

	entry, err := d.registry.Resolve(name)
	if err != nil {
		return errorResult(err), err
	}

	input, err := entry.decode(arguments)
	if err != nil {
		invalid := apperrors.Wrap(apperrors.CodeInvalidInput, "Invalid input for "+name, err)
		return errorResult(invalid), invalid
	}

	output, err := invoke(ctx, entry, input)
	if err != nil {
		if apperrors.GetCode(err) != apperrors.CodeHandlerFailure {
			err = apperrors.Wrap(apperrors.CodeHandlerFailure, "Tool "+name+" failed", err)
		}
		return errorResult(err), err
	}
	return textResult(entry.spec.ResultPrefix+output, false), nil
}

// invoke runs the handler, converting a panic into a handler failure.
func invoke(ctx context.Context, entry *Entry, input domain.Input) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.CodeHandlerFailure, fmt.Sprintf("Tool %s panicked: %v", entry.spec.Name, r))
		}
	}()
	return entry.invoke(ctx, input)
}

// Drain stops new calls from starting and waits for in-flight calls to
// finish or ctx to end. It is safe to call more than once.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	d.draining = true
	if d.inFlight == 0 {
		d.mu.Unlock()
		return nil
	}
	if d.idle == nil {
		d.idle = make(chan struct{})
	}
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight reports the number of calls currently running.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

func (d *Dispatcher) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draining {
		return false
	}
	d.inFlight++
	return true
}

func (d *Dispatcher) end() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight--
	if d.inFlight == 0 && d.idle != nil {
		close(d.idle)
		d.idle = nil
	}
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return textResult(err.Error(), true)
}
