package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del dominio licencias/telemetría. Viven en un paquete
// propio para evitar ciclos de import entre los servicios de dominio y el
// paquete HTTP.

var (
	LicenseValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_validations_total",
		Help: "Validaciones de licencia por resultado",
	}, []string{"result"}) // valid|not_found|expired|revoked|hardware_mismatch|error

	LicenseActivations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_activations_total",
		Help: "Activaciones registradas por resultado",
	}, []string{"result"}) // ok|quota_exceeded|error

	TelemetryIngests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_ingests_total",
		Help: "Reportes de telemetría por desenlace de persistencia y validación",
	}, []string{"persisted", "validation"}) // persisted: true|false; validation: ok|failed

	TelemetryIngestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "telemetry_ingest_latency_ms",
		Help:    "Latencia del upsert de telemetría en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// RegisterDomain registra las métricas de dominio en el registry dado
// (o el default si es nil). Registros duplicados no son error.
func RegisterDomain(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LicenseValidations,
		LicenseActivations,
		TelemetryIngests,
		TelemetryIngestLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
