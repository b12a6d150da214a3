// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics defines Prometheus counters and histograms for the index
// server and pipeline executor, registered with the default registry on
// first use. Nothing in this module serves that registry over HTTP.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type serverMetrics struct {
	once sync.Once

	stagesRun      *prometheus.CounterVec
	stageErrors    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec

	crossrefLookups      prometheus.Counter
	crossrefUnknownSyms  prometheus.Counter
	identifierLookups    prometheus.Counter
	bisectionComparisons prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	backendErrors *prometheus.CounterVec
}

var m serverMetrics

func (s *serverMetrics) init() {
	s.once.Do(func() {
		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

		s.stagesRun = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xref_pipeline_stage_runs_total", Help: "Pipeline stage executions by stage name",
		}, []string{"stage"})
		s.stageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xref_pipeline_stage_errors_total", Help: "Pipeline stage errors by stage name and layer",
		}, []string{"stage", "layer"})
		s.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "xref_pipeline_stage_seconds", Help: "Pipeline stage execution duration", Buckets: buckets,
		}, []string{"stage"})

		s.crossrefLookups = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xref_crossref_lookups_total", Help: "Crossref symbol lookups performed",
		})
		s.crossrefUnknownSyms = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xref_crossref_unknown_symbols_total", Help: "Symbols not found during crossref lookup",
		})
		s.identifierLookups = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xref_identifier_lookups_total", Help: "Identifier prefix searches performed",
		})
		s.bisectionComparisons = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xref_store_bisection_comparisons_total", Help: "Comparisons performed across all mmap bisection searches",
		})

		s.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xref_http_requests_total", Help: "HTTP requests by tree and status class",
		}, []string{"tree", "status"})
		s.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "xref_http_request_seconds", Help: "HTTP request duration", Buckets: buckets,
		}, []string{"tree"})

		s.backendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xref_backend_errors_total", Help: "Abstract server backend errors by kind and layer",
		}, []string{"backend", "layer"})

		prometheus.MustRegister(
			s.stagesRun, s.stageErrors, s.stageDuration,
			s.crossrefLookups, s.crossrefUnknownSyms, s.identifierLookups, s.bisectionComparisons,
			s.httpRequests, s.httpDuration,
			s.backendErrors,
		)
	})
}

// StageRun records one execution of a pipeline stage and its duration.
func StageRun(stage string, seconds float64) {
	m.init()
	m.stagesRun.WithLabelValues(stage).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// StageError records a pipeline stage failure by its error layer.
func StageError(stage, layer string) {
	m.init()
	m.stageErrors.WithLabelValues(stage, layer).Inc()
}

// CrossrefLookup records a crossref-lookup stage invocation and how many
// requested symbols it could not resolve.
func CrossrefLookup(unknownCount int) {
	m.init()
	m.crossrefLookups.Inc()
	if unknownCount > 0 {
		m.crossrefUnknownSyms.Add(float64(unknownCount))
	}
}

// IdentifierLookup records a search-identifiers stage invocation.
func IdentifierLookup() {
	m.init()
	m.identifierLookups.Inc()
}

// BisectionComparisons adds n comparisons performed during an mmap bisection
// search, for tracking store lookup cost independent of wall-clock time.
func BisectionComparisons(n int) {
	m.init()
	m.bisectionComparisons.Add(float64(n))
}

// HTTPRequest records one served HTTP request.
func HTTPRequest(tree, statusClass string, seconds float64) {
	m.init()
	m.httpRequests.WithLabelValues(tree, statusClass).Inc()
	m.httpDuration.WithLabelValues(tree).Observe(seconds)
}

// BackendError records an abstract-server backend error.
func BackendError(backend, layer string) {
	m.init()
	m.backendErrors.WithLabelValues(backend, layer).Inc()
}
