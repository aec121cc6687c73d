package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	// build_info is a constant 1 gauge labelled with the binary name and version.
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "saha_build_info",
			Help: "Saha panel build information.",
		},
		[]string{"binary", "version"},
	)
)

// InitBuildInfo registers saha_build_info once and sets the value for the binary.
func InitBuildInfo(binary, version string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
	buildInfo.WithLabelValues(binary, version).Set(1)
}
