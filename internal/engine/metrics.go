// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package engine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the engine's prometheus collectors. A fresh, private
// registry backs them when the caller supplies no Registerer, so an
// embedded engine never collides with the host's default registry.
type metrics struct {
	queriesTotal         prometheus.Counter
	tierSelectedTotal    *prometheus.CounterVec
	compactionsTotal     prometheus.Counter
	candidateCardinality prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &metrics{
		queriesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "likeidx_queries_total",
			Help: "Total number of Query calls executed.",
		}),
		tierSelectedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "likeidx_planner_tier_selected_total",
			Help: "Count of the leading predicate's planner tier chosen per query.",
		}, []string{"tier"}),
		compactionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "likeidx_compactions_total",
			Help: "Total number of compaction passes run.",
		}),
		candidateCardinality: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "likeidx_candidate_cardinality",
			Help:    "Candidate-set cardinality after planner execution, before TID assembly.",
			Buckets: prometheus.ExponentialBuckets(1, 8, 10),
		}),
	}
}

func (m *metrics) observeTier(tier int) {
	m.tierSelectedTotal.WithLabelValues(strconv.Itoa(tier)).Inc()
}
