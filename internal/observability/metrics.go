package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for the asset pipeline and the AR session.
// All methods are safe on a nil receiver.
type Collector struct {
	gatherer prometheus.Gatherer

	SlotSelections      *prometheus.CounterVec
	CompressionDuration prometheus.Histogram
	LiveHandles         prometheus.Gauge
	SceneApplies        *prometheus.CounterVec
	ScreenTransitions   *prometheus.CounterVec
	Uploads             *prometheus.CounterVec
}

// NewCollector registers the metrics against reg (the default registerer when nil)
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	selections, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arviewer_slot_selections_total",
		Help: "File selections per asset slot, by outcome.",
	}, []string{"slot", "outcome"}), "arviewer_slot_selections_total")
	if err != nil {
		return nil, err
	}

	compression, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arviewer_image_compression_duration_seconds",
		Help:    "Time spent downsampling oversized reference images.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}), "arviewer_image_compression_duration_seconds")
	if err != nil {
		return nil, err
	}

	live, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arviewer_live_handles",
		Help: "Resource handles currently live.",
	}), "arviewer_live_handles")
	if err != nil {
		return nil, err
	}

	applies, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arviewer_scene_applies_total",
		Help: "AR scene (re)initializations, by outcome.",
	}, []string{"outcome"}), "arviewer_scene_applies_total")
	if err != nil {
		return nil, err
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arviewer_screen_transitions_total",
		Help: "Screen transitions, by target screen.",
	}, []string{"to"}), "arviewer_screen_transitions_total")
	if err != nil {
		return nil, err
	}

	uploads, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arviewer_uploads_total",
		Help: "Requests to the legacy upload route, by outcome.",
	}, []string{"outcome"}), "arviewer_uploads_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:            gatherer,
		SlotSelections:      selections,
		CompressionDuration: compression,
		LiveHandles:         live,
		SceneApplies:        applies,
		ScreenTransitions:   transitions,
		Uploads:             uploads,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveSelection(slot, outcome string) {
	if c == nil || c.SlotSelections == nil {
		return
	}
	c.SlotSelections.WithLabelValues(slot, outcome).Inc()
}

func (c *Collector) ObserveCompression(d time.Duration) {
	if c == nil || c.CompressionDuration == nil {
		return
	}
	c.CompressionDuration.Observe(d.Seconds())
}

func (c *Collector) SetLiveHandles(n int) {
	if c == nil || c.LiveHandles == nil {
		return
	}
	c.LiveHandles.Set(float64(n))
}

func (c *Collector) ObserveSceneApply(outcome string) {
	if c == nil || c.SceneApplies == nil {
		return
	}
	c.SceneApplies.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveTransition(to string) {
	if c == nil || c.ScreenTransitions == nil {
		return
	}
	c.ScreenTransitions.WithLabelValues(to).Inc()
}

func (c *Collector) ObserveUpload(outcome string) {
	if c == nil || c.Uploads == nil {
		return
	}
	c.Uploads.WithLabelValues(outcome).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}
