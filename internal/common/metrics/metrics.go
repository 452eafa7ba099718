package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 遥测链路核心指标，由 /metrics 暴露（promhttp 在 server 包注册）。
var (
	ReadingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frotalink_readings_ingested_total",
		Help: "Telemetry readings durably persisted.",
	})

	IngestRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frotalink_ingest_rejected_total",
		Help: "Ingest requests rejected before persistence.",
	}, []string{"reason"}) // not_found / invalid / rate_limited

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frotalink_alerts_raised_total",
		Help: "Alerts attached to readings at ingest time.",
	}, []string{"type"})

	BroadcastDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frotalink_broadcast_drops_total",
		Help: "Live updates dropped because a sink was slow or down.",
	}, []string{"sink"}) // ws / redis / amqp

	SnapshotRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frotalink_snapshot_retries_total",
		Help: "Retries of the vehicle snapshot update after a transient failure.",
	})
)
