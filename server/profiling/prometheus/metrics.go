/*
 * Copyright 2026 The BotsCode Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"

	"github.com/botscode-team/botscode/internal/version"
)

const (
	namespace     = "botscode"
	opLabel       = "op"
	resultLabel   = "result"
	taskTypeLabel = "task_type"
	reasonLabel   = "reason"
	languageLabel = "language"
	modeLabel     = "mode"
)

// Metrics manages the metric information that BotsCode is trying to measure.
type Metrics struct {
	registry      *prometheus.Registry
	serverMetrics *grpcprometheus.ServerMetrics

	serverVersion *prometheus.GaugeVec

	storeConnections        prometheus.Gauge
	storeOperationsTotal    *prometheus.CounterVec
	storeNotificationsTotal prometheus.Counter
	disconnectHooksTotal    *prometheus.CounterVec
	disconnectsTotal        *prometheus.CounterVec

	executionsTotal       *prometheus.CounterVec
	executionPollAttempts prometheus.Histogram
	assistRequestsTotal   *prometheus.CounterVec

	backgroundGoroutinesTotal *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	serverMetrics := grpcprometheus.NewServerMetrics()

	if err := reg.Register(serverMetrics); err != nil {
		return nil, fmt.Errorf("register grpc server metrics: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry:      reg,
		serverMetrics: serverMetrics,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		storeConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "connections",
			Help:      "The number of connections attached to the store.",
		}),
		storeOperationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "The total count of store operations by kind and result.",
		}, []string{opLabel, resultLabel}),
		storeNotificationsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "notifications_total",
			Help:      "The total count of snapshots published to subscriptions.",
		}),
		disconnectHooksTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "disconnect_hooks_total",
			Help:      "The total count of executed disconnect hooks by result.",
		}, []string{resultLabel}),
		disconnectsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "disconnects_total",
			Help:      "The total count of ended connections by reason.",
		}, []string{reasonLabel}),
		executionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "runs_total",
			Help:      "The total count of code executions by language and result.",
		}, []string{languageLabel, resultLabel}),
		executionPollAttempts: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "poll_attempts",
			Help:      "The number of status checks an execution needed.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		assistRequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assist",
			Name:      "requests_total",
			Help:      "The total count of AI transform requests by mode and result.",
		}, []string{modeLabel, resultLabel}),
		backgroundGoroutinesTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "goroutines_total",
			Help:      "The total number of goroutines attached by the backend background.",
		}, []string{taskTypeLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// AddStoreConnections increments the number of store connections.
func (m *Metrics) AddStoreConnections() {
	m.storeConnections.Inc()
}

// RemoveStoreConnections decrements the number of store connections.
func (m *Metrics) RemoveStoreConnections() {
	m.storeConnections.Dec()
}

// AddStoreOperation adds a store operation of the given kind.
func (m *Metrics) AddStoreOperation(op string, err error) {
	m.storeOperationsTotal.With(prometheus.Labels{
		opLabel:     op,
		resultLabel: resultOf(err),
	}).Inc()
}

// AddStoreNotifications adds the given count of published snapshots.
func (m *Metrics) AddStoreNotifications(count int) {
	m.storeNotificationsTotal.Add(float64(count))
}

// AddDisconnectHook adds an executed disconnect hook.
func (m *Metrics) AddDisconnectHook(err error) {
	m.disconnectHooksTotal.With(prometheus.Labels{
		resultLabel: resultOf(err),
	}).Inc()
}

// AddDisconnect adds an ended connection. The reason is either "close" or
// "expire".
func (m *Metrics) AddDisconnect(reason string) {
	m.disconnectsTotal.With(prometheus.Labels{
		reasonLabel: reason,
	}).Inc()
}

// AddExecution adds a finished code execution.
func (m *Metrics) AddExecution(language string, err error) {
	m.executionsTotal.With(prometheus.Labels{
		languageLabel: language,
		resultLabel:   resultOf(err),
	}).Inc()
}

// ObserveExecutionPollAttempts observes the status checks of an execution.
func (m *Metrics) ObserveExecutionPollAttempts(attempts int) {
	m.executionPollAttempts.Observe(float64(attempts))
}

// AddAssistRequest adds a finished AI transform request.
func (m *Metrics) AddAssistRequest(mode string, err error) {
	m.assistRequestsTotal.With(prometheus.Labels{
		modeLabel:   mode,
		resultLabel: resultOf(err),
	}).Inc()
}

// AddBackgroundGoroutines adds the number of goroutines attached by the backend background.
func (m *Metrics) AddBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Inc()
}

// RemoveBackgroundGoroutines removes the number of goroutines attached by the backend background.
func (m *Metrics) RemoveBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ServerMetrics returns the gRPC server metrics.
func (m *Metrics) ServerMetrics() *grpcprometheus.ServerMetrics {
	return m.serverMetrics
}

// RegisterGRPCServer registers the given gRPC server to the metrics so that
// all of its methods are reported from the start.
func (m *Metrics) RegisterGRPCServer(server *grpc.Server) {
	m.serverMetrics.InitializeMetrics(server)
}
