// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type GatewayMetrics struct {
	depositCount           *prometheus.CounterVec
	depositedInstanceCount prometheus.Counter
	finalizeCount          *prometheus.CounterVec
	releasedInstanceCount  prometheus.Counter
	mappingUpdateCount     prometheus.Counter
	failedCallCount        *prometheus.CounterVec
}

func NewGatewayMetrics(registerer prometheus.Registerer) *GatewayMetrics {
	m := GatewayMetrics{
		depositCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_deposit_count",
				Help: "Number of successful deposits",
			},
			[]string{"kind"},
		),
		depositedInstanceCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_deposited_instance_count",
				Help: "Number of instances taken into custody",
			},
		),
		finalizeCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_finalize_withdraw_count",
				Help: "Number of successful finalized withdrawals",
			},
			[]string{"kind"},
		),
		releasedInstanceCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_released_instance_count",
				Help: "Number of instances released from custody",
			},
		),
		mappingUpdateCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_mapping_update_count",
				Help: "Number of token mapping updates",
			},
		),
		failedCallCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_failed_call_count",
				Help: "Number of gateway calls that aborted",
			},
			[]string{"operation", "failure_reason"},
		),
	}

	registerer.MustRegister(m.depositCount)
	registerer.MustRegister(m.depositedInstanceCount)
	registerer.MustRegister(m.finalizeCount)
	registerer.MustRegister(m.releasedInstanceCount)
	registerer.MustRegister(m.mappingUpdateCount)
	registerer.MustRegister(m.failedCallCount)

	return &m
}

func kind(batch bool) string {
	if batch {
		return "batch"
	}
	return "single"
}

// Nil receivers are accepted so a gateway can run without metrics.

func (m *GatewayMetrics) Deposited(batch bool, instances int) {
	if m == nil {
		return
	}
	m.depositCount.WithLabelValues(kind(batch)).Inc()
	m.depositedInstanceCount.Add(float64(instances))
}

func (m *GatewayMetrics) Finalized(batch bool, instances int) {
	if m == nil {
		return
	}
	m.finalizeCount.WithLabelValues(kind(batch)).Inc()
	m.releasedInstanceCount.Add(float64(instances))
}

func (m *GatewayMetrics) MappingUpdated() {
	if m == nil {
		return
	}
	m.mappingUpdateCount.Inc()
}

func (m *GatewayMetrics) Failed(operation, reason string) {
	if m == nil {
		return
	}
	m.failedCallCount.WithLabelValues(operation, reason).Inc()
}
