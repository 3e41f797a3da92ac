// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	lookups       prometheus.Counter
	lookupMisses  prometheus.Counter
	alters        prometheus.Counter
	unions        prometheus.Counter
	refinements   prometheus.Counter
	unrefined     prometheus.Counter
	invalidMemory prometheus.Counter
	violations    prometheus.Counter

	parallelUpdates prometheus.Counter
	applyDisjoint   metric.Averager
}

func newMetrics(namespace string) (*prometheus.Registry, *engineMetrics, error) {
	r := prometheus.NewRegistry()

	applyDisjoint, err := metric.NewAverager(
		"",
		namespace+"_apply_disjoint",
		"time spent applying a batch of disjoint updates",
		r,
	)
	if err != nil {
		return nil, nil, err
	}

	m := &engineMetrics{
		lookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups",
			Help:      "number of typed lookups",
		}),
		lookupMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_misses",
			Help:      "number of typed lookups that found nothing",
		}),
		alters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alters",
			Help:      "number of typed alters",
		}),
		unions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unions",
			Help:      "number of memory unions",
		}),
		refinements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinement_checks",
			Help:      "number of refinement checks",
		}),
		unrefined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinement_failures",
			Help:      "number of refinement checks that did not hold",
		}),
		invalidMemory: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_memory",
			Help:      "number of validations that rejected a memory",
		}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_violations",
			Help:      "number of failed assertions",
		}),
		parallelUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parallel_updates",
			Help:      "number of updates applied by disjoint batches",
		}),
		applyDisjoint: applyDisjoint,
	}

	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.lookups),
		r.Register(m.lookupMisses),
		r.Register(m.alters),
		r.Register(m.unions),
		r.Register(m.refinements),
		r.Register(m.unrefined),
		r.Register(m.invalidMemory),
		r.Register(m.violations),
		r.Register(m.parallelUpdates),
	)
	return r, m, errs.Err
}
