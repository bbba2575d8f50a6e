// Package metrics captures telemetry for the upload pipeline and the stores.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer receives telemetry events from the uploader and the repositories.
type Observer interface {
	RecordUpload(duration time.Duration, sizeBytes int64, outcome string)
	RecordSave(key string, err error)
}

type nopObserver struct{}

func (nopObserver) RecordUpload(time.Duration, int64, string) {}
func (nopObserver) RecordSave(string, error)                  {}

// Nop returns an observer that discards all events.
func Nop() Observer {
	return nopObserver{}
}

// OrNop returns observer when non-nil, otherwise a no-op observer.
func OrNop(observer Observer) Observer {
	if observer == nil {
		return Nop()
	}
	return observer
}

// PrometheusObserver exports pipeline metrics to Prometheus.
type PrometheusObserver struct {
	uploadDuration *prometheus.HistogramVec
	uploadBytes    prometheus.Counter
	storeSaves     *prometheus.CounterVec
	saveErrors     *prometheus.CounterVec
}

// NewPrometheusObserver registers upload and persistence metrics.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "fiesta"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &PrometheusObserver{
		uploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Latency for single-file uploads, labelled by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully uploaded to the media host.",
		}),
		storeSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_saves_total",
			Help:      "Count of durable record-set writes, labelled by storage key.",
		}, []string{"key"}),
		saveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_save_errors_total",
			Help:      "Count of failed durable writes, labelled by storage key.",
		}, []string{"key"}),
	}
	collectors := []prometheus.Collector{
		observer.uploadDuration, observer.uploadBytes, observer.storeSaves, observer.saveErrors,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return observer, nil
}

func (o *PrometheusObserver) RecordUpload(duration time.Duration, sizeBytes int64, outcome string) {
	o.uploadDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == "success" && sizeBytes > 0 {
		o.uploadBytes.Add(float64(sizeBytes))
	}
}

func (o *PrometheusObserver) RecordSave(key string, err error) {
	o.storeSaves.WithLabelValues(key).Inc()
	if err != nil {
		o.saveErrors.WithLabelValues(key).Inc()
	}
}
