// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine wraps the memory model with logging, metrics, tracing and
// optional re-checking of the hypotheses operations rely on.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	avatrace "github.com/ava-labs/avalanchego/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ava-labs/symmem/addr"
	"github.com/ava-labs/symmem/meminj"
	"github.com/ava-labs/symmem/memory"
	"github.com/ava-labs/symmem/trace"
	"github.com/ava-labs/symmem/types"
	"github.com/ava-labs/symmem/vtree"
)

var ErrContractViolation = errors.New("contract violation")

type Engine struct {
	log     logging.Logger
	env     *types.Env
	config  Config
	tracer  avatrace.Tracer
	metrics *engineMetrics
}

// New returns an engine over [env] and the registry holding its metrics.
func New(log logging.Logger, env *types.Env, config Config) (*Engine, *prometheus.Registry, error) {
	registry, metrics, err := newMetrics(config.MetricsNamespace)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	tracer, err := trace.New(&config.TraceConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	log.Info("initialized memory engine", zap.Any("config", config))
	return &Engine{
		log:     log,
		env:     env,
		config:  config,
		tracer:  tracer,
		metrics: metrics,
	}, registry, nil
}

func (e *Engine) Env() *types.Env { return e.env }

func (e *Engine) Close() error {
	return e.tracer.Close()
}

func (e *Engine) violation(msg string, fields ...zap.Field) error {
	e.metrics.violations.Inc()
	if e.config.FatalViolations {
		e.log.Fatal(msg, fields...)
		panic(fmt.Sprintf("%s: %s", ErrContractViolation, msg))
	}
	e.log.Error(msg, fields...)
	return fmt.Errorf("%w: %s", ErrContractViolation, msg)
}

func addrAttributes(key string, a addr.Addr) attribute.KeyValue {
	return attribute.String(key, a.String())
}

// Dom returns the indices mapped by [m].
func (*Engine) Dom(m memory.Map) set.Set[addr.Index] {
	return m.Dom()
}

// Validate returns why [m] is not valid, or nil.
func (e *Engine) Validate(ctx context.Context, m memory.Map) error {
	_, span := e.tracer.Start(ctx, "Engine.Validate",
		oteltrace.WithAttributes(
			attribute.Int("objects", m.Len()),
		),
	)
	defer span.End()

	if err := m.Validate(e.env); err != nil {
		e.metrics.invalidMemory.Inc()
		e.log.Debug("memory is not valid", zap.Error(err))
		return err
	}
	return nil
}

func (e *Engine) IsValid(ctx context.Context, m memory.Map) bool {
	return e.Validate(ctx, m) == nil
}

// Lookup returns the contents [a] points to in [m].
func (e *Engine) Lookup(ctx context.Context, m memory.Map, a addr.Addr) maybe.Maybe[*vtree.Tree] {
	_, span := e.tracer.Start(ctx, "Engine.Lookup",
		oteltrace.WithAttributes(
			addrAttributes("addr", a),
		),
	)
	defer span.End()

	e.metrics.lookups.Inc()
	w := m.Lookup(e.env, a)
	if w.IsNothing() {
		e.metrics.lookupMisses.Inc()
		e.log.Debug("lookup found nothing", zap.Stringer("addr", a))
	}
	return w
}

// Alter applies [g] at [a] in [m]. With assertions enabled, [g] must keep the
// type of what it rewrites and leave some of it owned and observable, and
// a valid [m] must stay valid.
func (e *Engine) Alter(ctx context.Context, m memory.Map, g memory.Transform, a addr.Addr) (memory.Map, error) {
	_, span := e.tracer.Start(ctx, "Engine.Alter",
		oteltrace.WithAttributes(
			addrAttributes("addr", a),
			attribute.Bool("assertions", e.config.Assertions),
		),
	)
	defer span.End()

	e.metrics.alters.Inc()
	if !e.config.Assertions {
		return m.Alter(e.env, g, a), nil
	}
	if err := e.checkTransform(m, g, a); err != nil {
		return m, err
	}
	valid := m.IsValid(e.env)
	out := m.Alter(e.env, g, a)
	if valid {
		if err := out.Validate(e.env); err != nil {
			return m, e.violation("alter broke validity", zap.Stringer("addr", a), zap.Error(err))
		}
	}
	return out, nil
}

// checkTransform applies [g] to what [a] points to and checks the result
// against the original. Addresses that do not resolve are not checked since
// alter leaves the memory unchanged.
func (e *Engine) checkTransform(m memory.Map, g memory.Transform, a addr.Addr) error {
	w := m.Lookup(e.env, a)
	if w.IsNothing() {
		return nil
	}
	typ, err := w.Value().TypeCheck(e.env)
	if err != nil {
		return nil //nolint:nilerr // ill-typed contents carry no hypotheses
	}
	out := g(w.Value())
	switch {
	case out == nil:
		return e.violation("transform returned nothing", zap.Stringer("addr", a))
	case out.IsEmpty():
		return e.violation("transform result owns no byte", zap.Stringer("addr", a))
	case out.Unmapped():
		return e.violation("transform result is unmapped", zap.Stringer("addr", a))
	}
	got, err := out.TypeCheck(e.env)
	if err != nil || !got.Equal(typ) {
		return e.violation("transform changed type",
			zap.Stringer("addr", a),
			zap.Stringer("want", typ),
			zap.Stringer("got", got),
			zap.Error(err),
		)
	}
	return nil
}

func (e *Engine) Disjoint(ctx context.Context, m1, m2 memory.Map) bool {
	_, span := e.tracer.Start(ctx, "Engine.Disjoint")
	defer span.End()

	return memory.Disjoint(m1, m2)
}

// Union combines [m1] and [m2]. With assertions enabled the two must be
// disjoint.
func (e *Engine) Union(ctx context.Context, m1, m2 memory.Map) (memory.Map, error) {
	_, span := e.tracer.Start(ctx, "Engine.Union",
		oteltrace.WithAttributes(
			attribute.Int("left", m1.Len()),
			attribute.Int("right", m2.Len()),
		),
	)
	defer span.End()

	e.metrics.unions.Inc()
	if e.config.Assertions && !memory.Disjoint(m1, m2) {
		return memory.Map{}, e.violation("union of overlapping memories",
			zap.Stringer("left", m1),
			zap.Stringer("right", m2),
		)
	}
	return memory.Union(m1, m2), nil
}

// Refines returns why [m1] is not refined by [m2] under [f], or nil.
func (e *Engine) Refines(ctx context.Context, f *meminj.Injection, m1, m2 memory.Map) error {
	_, span := e.tracer.Start(ctx, "Engine.Refines",
		oteltrace.WithAttributes(
			attribute.Int("injected", f.Len()),
			attribute.Bool("identity", f.IsIdentity()),
		),
	)
	defer span.End()

	e.metrics.refinements.Inc()
	if err := memory.Refines(e.env, f, m1, m2); err != nil {
		e.metrics.unrefined.Inc()
		e.log.Debug("refinement does not hold", zap.Error(err))
		return err
	}
	return nil
}

func (e *Engine) NonAliasing(ctx context.Context, m memory.Map, a1, a2 addr.Addr) (memory.Aliasing, error) {
	_, span := e.tracer.Start(ctx, "Engine.NonAliasing",
		oteltrace.WithAttributes(
			addrAttributes("first", a1),
			addrAttributes("second", a2),
		),
	)
	defer span.End()

	return m.NonAliasing(e.env, a1, a2)
}

// ApplyDisjoint applies updates at pairwise disjoint addresses concurrently.
// With assertions enabled every transform is checked as [Alter] checks it.
func (e *Engine) ApplyDisjoint(ctx context.Context, m memory.Map, updates []memory.Update) (memory.Map, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "Engine.ApplyDisjoint",
		oteltrace.WithAttributes(
			attribute.Int("updates", len(updates)),
			attribute.Bool("assertions", e.config.Assertions),
		),
	)
	defer span.End()

	if e.config.Assertions {
		for _, u := range updates {
			if err := e.checkTransform(m, u.Fn, u.Addr); err != nil {
				return m, err
			}
		}
	}
	out, err := memory.ApplyDisjoint(ctx, e.env, m, updates)
	if err != nil {
		return m, err
	}
	e.metrics.parallelUpdates.Add(float64(len(updates)))
	e.metrics.applyDisjoint.Observe(float64(time.Since(start)))
	return out, nil
}
