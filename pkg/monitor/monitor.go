// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package monitor runs the grading pipeline on an interval and publishes
// the results to Prometheus, NATS, or the log.
package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/report"
)

// Config drives one monitoring loop.
type Config struct {
	Interval       time.Duration
	PolicyFile     string
	UseNats        bool
	NatsURL        string
	NatsSubject    string
	Prometheus     bool
	PrometheusPort int
}

// Monitor periodically rescans all devices and grades them. The threshold
// policy reloads in place when the policy file changes on disk.
type Monitor struct {
	cfg     Config
	scanner *devicescan.Scanner

	mu     sync.RWMutex
	policy grading.ThresholdPolicy
}

// New builds a monitor around an existing scanner.
func New(cfg Config, scanner *devicescan.Scanner, policy grading.ThresholdPolicy) *Monitor {
	return &Monitor{cfg: cfg, scanner: scanner, policy: policy}
}

// Policy returns the currently active threshold policy.
func (m *Monitor) Policy() grading.ThresholdPolicy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// watchPolicy reloads thresholds whenever the policy file is rewritten.
// A file that no longer parses keeps the previous policy active.
func (m *Monitor) watchPolicy() {
	v := viper.New()
	v.SetConfigFile(m.cfg.PolicyFile)
	v.OnConfigChange(func(event fsnotify.Event) {
		policy, err := grading.LoadPolicy(m.cfg.PolicyFile)
		if err != nil {
			log.Error().Err(err).Str("file", event.Name).Msg("policy reload failed, keeping previous thresholds")
			return
		}
		m.mu.Lock()
		m.policy = policy
		m.mu.Unlock()
		log.Info().Str("file", event.Name).Msg("threshold policy reloaded")
	})
	v.WatchConfig()
}

// Run blocks until the context is cancelled, grading all devices once per
// interval. The first pass runs immediately.
func (m *Monitor) Run(ctx context.Context) error {
	var nc *nats.Conn
	if m.cfg.UseNats {
		var err error
		nc, err = nats.Connect(m.cfg.NatsURL)
		if err != nil {
			log.Fatal().Err(err).Msg("error connecting to nats")
		}
		defer nc.Close()
	}

	if m.cfg.Prometheus {
		StartPrometheusServer(m.cfg.PrometheusPort)
	}

	if m.cfg.PolicyFile != "" {
		m.watchPolicy()
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		m.runOnce(ctx, nc)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context, nc *nats.Conn) {
	outcomes, err := m.scanner.Scan(ctx)
	if err != nil {
		log.Error().Err(err).Msg("device scan failed")
		return
	}

	r := report.Build(outcomes, m.Policy())
	log.Info().
		Int("devices", len(r.Entries)).
		Int("passed", r.Passed()).
		Int("failed", r.Failed()).
		Int("errors", r.Errored()).
		Msg("grading pass complete")

	if m.cfg.Prometheus {
		PublishToPrometheus(r)
	}

	if nc != nil {
		if err := r.PublishToNATS(nc, m.cfg.NatsSubject); err != nil {
			log.Error().Err(err).Msg("error publishing grades to nats")
		}
		return
	}

	reportJSON, err := json.Marshal(r)
	if err != nil {
		log.Error().Err(err).Msg("error marshalling report to json")
		return
	}
	log.Info().RawJSON("report", reportJSON).Msg("grading report")
}
