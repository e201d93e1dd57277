// Copyright (C) 2024, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGatewayMetrics(t *testing.T) {
	require := require.New(t)

	m := NewGatewayMetrics(prometheus.NewRegistry())
	m.Deposited(false, 1)
	m.Deposited(true, 3)
	m.Finalized(true, 2)
	m.MappingUpdated()
	m.Failed("deposit", "unmapped token")
	m.Failed("deposit", "unmapped token")

	require.Equal(float64(1), testutil.ToFloat64(m.depositCount.WithLabelValues("single")))
	require.Equal(float64(1), testutil.ToFloat64(m.depositCount.WithLabelValues("batch")))
	require.Equal(float64(4), testutil.ToFloat64(m.depositedInstanceCount))
	require.Equal(float64(2), testutil.ToFloat64(m.releasedInstanceCount))
	require.Equal(float64(1), testutil.ToFloat64(m.mappingUpdateCount))
	require.Equal(float64(2), testutil.ToFloat64(m.failedCallCount.WithLabelValues("deposit", "unmapped token")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *GatewayMetrics
	require.NotPanics(t, func() {
		m.Deposited(true, 2)
		m.Finalized(false, 1)
		m.MappingUpdated()
		m.Failed("finalize", "unauthorized")
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewGatewayMetrics(reg)
	require.Panics(t, func() { NewGatewayMetrics(reg) })
}
