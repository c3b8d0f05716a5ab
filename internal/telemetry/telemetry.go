// Package telemetry records solver observability data: iteration
// counts, wall-clock durations, and published plan lengths. It
// mirrors the teacher codebase's split between a Prometheus push
// gateway for live dashboards and an InfluxDB sink for offline
// batch analysis, with a no-op default so wiring a recorder never
// changes solver semantics.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder receives solver observations. The solver packages do not
// take a Recorder or report to one themselves; a caller records what
// it observes around a Solve call.
type Recorder interface {
	ObserveIteration(solver string, n int)
	ObserveDuration(solver string, d time.Duration)
	ObservePlanLength(solver string, n int)
}

// NopRecorder discards every observation. It is the default when no
// recorder is configured.
type NopRecorder struct{}

func (NopRecorder) ObserveIteration(string, int)          {}
func (NopRecorder) ObserveDuration(string, time.Duration) {}
func (NopRecorder) ObservePlanLength(string, int)         {}

var _ Recorder = NopRecorder{}

// PrometheusRecorder pushes gauges to a Prometheus Pushgateway, one
// gauge vector per observation kind, labelled by solver name.
type PrometheusRecorder struct {
	pusher     *push.Pusher
	mu         sync.Mutex
	iterations *prometheus.GaugeVec
	durations  *prometheus.GaugeVec
	planLens   *prometheus.GaugeVec
}

// NewPrometheusRecorder registers gauges with a Pushgateway at
// gatewayURL under the given job name.
func NewPrometheusRecorder(gatewayURL, job string) *PrometheusRecorder {
	iterations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_solver_iterations",
		Help: "Iterations performed by the most recent solve.",
	}, []string{"solver"})
	durations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_solver_duration_seconds",
		Help: "Wall-clock duration of the most recent solve.",
	}, []string{"solver"})
	planLens := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_solver_plan_length",
		Help: "Length of the most recently published plan.",
	}, []string{"solver"})

	pusher := push.New(gatewayURL, job).
		Collector(iterations).
		Collector(durations).
		Collector(planLens)

	return &PrometheusRecorder{
		pusher:     pusher,
		iterations: iterations,
		durations:  durations,
		planLens:   planLens,
	}
}

func (r *PrometheusRecorder) ObserveIteration(solver string, n int) {
	r.iterations.WithLabelValues(solver).Set(float64(n))
	r.push()
}

func (r *PrometheusRecorder) ObserveDuration(solver string, d time.Duration) {
	r.durations.WithLabelValues(solver).Set(d.Seconds())
	r.push()
}

func (r *PrometheusRecorder) ObservePlanLength(solver string, n int) {
	r.planLens.WithLabelValues(solver).Set(float64(n))
	r.push()
}

func (r *PrometheusRecorder) push() {
	r.mu.Lock()
	defer r.mu.Unlock()
	go r.pusher.Push()
}

var _ Recorder = (*PrometheusRecorder)(nil)

// InfluxRecorder writes each observation as a line-protocol point,
// for batch/offline analysis rather than live dashboards.
type InfluxRecorder struct {
	client influxdb2.Client
	org    string
	bucket string
}

// NewInfluxRecorder connects to an InfluxDB instance at url using
// token, writing points into org/bucket.
func NewInfluxRecorder(url, token, org, bucket string) *InfluxRecorder {
	return &InfluxRecorder{
		client: influxdb2.NewClient(url, token),
		org:    org,
		bucket: bucket,
	}
}

func (r *InfluxRecorder) writePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	api := r.client.WriteAPIBlocking(r.org, r.bucket)
	point := write.NewPoint(measurement, tags, fields, time.Now())
	if err := api.WritePoint(context.Background(), point); err != nil {
		log.Error("telemetry: influx write failed", "measurement", measurement, "error", err)
	}
}

func (r *InfluxRecorder) ObserveIteration(solver string, n int) {
	r.writePoint("solver_iterations", map[string]string{"solver": solver}, map[string]interface{}{"value": n})
}

func (r *InfluxRecorder) ObserveDuration(solver string, d time.Duration) {
	r.writePoint("solver_duration_seconds", map[string]string{"solver": solver}, map[string]interface{}{"value": d.Seconds()})
}

func (r *InfluxRecorder) ObservePlanLength(solver string, n int) {
	r.writePoint("solver_plan_length", map[string]string{"solver": solver}, map[string]interface{}{"value": n})
}

var _ Recorder = (*InfluxRecorder)(nil)
