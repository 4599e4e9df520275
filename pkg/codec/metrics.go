package codec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	compilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attrdata_codec_compilations_total",
			Help: "Total number of attribute group compilations",
		},
		[]string{"status"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attrdata_codec_cache_lookups_total",
			Help: "Total number of descriptor cache lookups",
		},
		[]string{"result"},
	)

	cachedGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "attrdata_codec_cached_groups",
			Help: "Number of attribute groups with a cached descriptor tree",
		},
	)
)
