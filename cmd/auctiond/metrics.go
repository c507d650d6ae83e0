// metrics.go - Metrics collection for the auction daemon
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Metric names
const (
	MetricAuctionsCreated  = "auctions_created"
	MetricBidsSubmitted    = "bids_submitted"
	MetricBidsRevealed     = "bids_revealed"
	MetricSettlements      = "settlements"
	MetricCancellations    = "cancellations"
	MetricRefundsClaimed   = "refunds_claimed"
	MetricSellerClaims     = "seller_claims"
	MetricRejectedCalls    = "rejected_calls"
	MetricHighestBid       = "highest_bid"
	MetricProofVerifyTime  = "proof_verify_time"
	MetricCircuitSetupTime = "circuit_setup_time"
)

// MetricsCollector aggregates daemon-level counters, gauges and histograms.
type MetricsCollector struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounter increments a counter metric.
func (mc *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[makeKey(name, labels)]++
}

// SetGauge sets a gauge metric value.
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.gauges[makeKey(name, labels)] = value
}

// RecordHistogram records a value in a histogram, keeping the last 1000
// samples per series.
func (mc *MetricsCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	key := makeKey(name, labels)
	samples := append(mc.histograms[key], value)
	if len(samples) > 1000 {
		samples = samples[len(samples)-1000:]
	}
	mc.histograms[key] = samples
}

// Summary returns a point-in-time view of all metrics.
func (mc *MetricsCollector) Summary() map[string]any {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	counters := make(map[string]int64, len(mc.counters))
	for k, v := range mc.counters {
		counters[k] = v
	}
	gauges := make(map[string]float64, len(mc.gauges))
	for k, v := range mc.gauges {
		gauges[k] = v
	}
	histograms := make(map[string]map[string]float64, len(mc.histograms))
	for k, samples := range mc.histograms {
		if len(samples) == 0 {
			continue
		}
		min, max, sum := samples[0], samples[0], 0.0
		for _, v := range samples {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
		}
		histograms[k] = map[string]float64{
			"count": float64(len(samples)),
			"min":   min,
			"max":   max,
			"avg":   sum / float64(len(samples)),
		}
	}

	return map[string]any{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// Handler serves the metrics summary as JSON.
func (mc *MetricsCollector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mc.Summary())
	})
}

func makeKey(name string, labels map[string]string) string {
	key := name
	for k, v := range labels {
		key += fmt.Sprintf("_%s_%s", k, v)
	}
	return key
}

// Convenience methods for common auction metrics

func (mc *MetricsCollector) RecordAuctionCreated() {
	mc.IncrementCounter(MetricAuctionsCreated, nil)
}

func (mc *MetricsCollector) RecordBidSubmitted(auctionID uint64) {
	mc.IncrementCounter(MetricBidsSubmitted, map[string]string{"auction": fmt.Sprint(auctionID)})
}

func (mc *MetricsCollector) RecordBidRevealed(auctionID uint64, highest float64) {
	mc.IncrementCounter(MetricBidsRevealed, map[string]string{"auction": fmt.Sprint(auctionID)})
	mc.SetGauge(MetricHighestBid, highest, map[string]string{"auction": fmt.Sprint(auctionID)})
}

func (mc *MetricsCollector) RecordSettlement(cancelled bool) {
	if cancelled {
		mc.IncrementCounter(MetricCancellations, nil)
	} else {
		mc.IncrementCounter(MetricSettlements, nil)
	}
}

func (mc *MetricsCollector) RecordClaim(kind string) {
	switch kind {
	case "refund":
		mc.IncrementCounter(MetricRefundsClaimed, nil)
	case "seller":
		mc.IncrementCounter(MetricSellerClaims, nil)
	}
}

func (mc *MetricsCollector) RecordRejection(op string) {
	mc.IncrementCounter(MetricRejectedCalls, map[string]string{"op": op})
}

func (mc *MetricsCollector) RecordCircuitSetup(d time.Duration) {
	mc.RecordHistogram(MetricCircuitSetupTime, d.Seconds(), nil)
}
