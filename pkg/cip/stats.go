package cip

// stats.go: operation counters. The counters are plain prometheus
// collectors; without a registerer they still count but are not exported,
// which keeps the hot paths free of conditionals.

import "github.com/prometheus/client_golang/prometheus"

// metricsRegisterer is the registration target for the problem's counters.
type metricsRegisterer = prometheus.Registerer

type stats struct {
	boundChanges prometheus.Counter
	propagations prometheus.Counter
	fixings      prometheus.Counter
	aggregations prometheus.Counter
	cliqueAdds   prometheus.Counter
	cutoffs      prometheus.Counter
	columns      prometheus.Counter
}

func newStats(reg metricsRegisterer) *stats {
	s := &stats{
		boundChanges: counter("cip_bound_changes_total", "Number of committed global and local bound changes."),
		propagations: counter("cip_propagations_total", "Number of bound deductions made by relationship propagation."),
		fixings:      counter("cip_fixings_total", "Number of variables fixed."),
		aggregations: counter("cip_aggregations_total", "Number of variables aggregated, multi-aggregated, or negated away."),
		cliqueAdds:   counter("cip_clique_members_total", "Number of clique memberships recorded."),
		cutoffs:      counter("cip_cutoffs_total", "Number of node cutoffs detected while applying domain changes."),
		columns:      counter("cip_lp_columns_total", "Number of variables that entered the LP."),
	}
	if reg != nil {
		reg.MustRegister(s.boundChanges, s.propagations, s.fixings, s.aggregations, s.cliqueAdds, s.cutoffs, s.columns)
	}
	return s
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

func (s *stats) countBoundChange() { s.boundChanges.Inc() }
func (s *stats) countPropagation() { s.propagations.Inc() }
func (s *stats) countFixing()      { s.fixings.Inc() }
func (s *stats) countAggregation() { s.aggregations.Inc() }
func (s *stats) countCliqueAdd()   { s.cliqueAdds.Inc() }
func (s *stats) countCutoff()      { s.cutoffs.Inc() }
func (s *stats) countColumn()      { s.columns.Inc() }
