// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/circulardrives/cdi-grading-tool/pkg/cmdexec"
	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/monitor"
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

var (
	watchIgnoreATA    bool
	watchIgnoreNVMe   bool
	watchIgnoreSCSI   bool
	watchWorkers      int
	watchProbeTimeout time.Duration
	watchPolicyFile   string
	watchInterval     time.Duration

	watchNatsURL     string
	watchNatsSubject string

	watchPromEnabled bool
	watchPromPort    int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously grade all drives on an interval",
	Run: func(cmd *cobra.Command, args []string) {
		if !smartctl.Installed() {
			log.Fatal().Msg("smartctl not found in PATH, install smartmontools")
		}

		mergeWatchFlagsWithEnv()

		policy := grading.DefaultPolicy()
		if watchPolicyFile != "" {
			loaded, err := grading.LoadPolicy(watchPolicyFile)
			if err != nil {
				log.Fatal().Err(err).Msg("could not load threshold policy")
			}
			policy = loaded
		}

		cfg := monitor.Config{
			Interval:       watchInterval,
			PolicyFile:     watchPolicyFile,
			UseNats:        watchNatsURL != "",
			NatsURL:        watchNatsURL,
			NatsSubject:    watchNatsSubject,
			Prometheus:     watchPromEnabled,
			PrometheusPort: watchPromPort,
		}

		event := log.Info()
		event.Dur("interval", cfg.Interval)
		event.Bool("use_nats", cfg.UseNats)
		if cfg.UseNats {
			event.Str("nats_url", cfg.NatsURL)
			event.Str("nats_subject", cfg.NatsSubject)
		}
		event.Bool("prometheus_enabled", cfg.Prometheus)
		if cfg.Prometheus {
			event.Int("prometheus_port", cfg.PrometheusPort)
		}
		event.Msg("configuration_loaded")

		scanner := devicescan.NewScanner(smartctl.NewClient(cmdexec.Shell{}), devicescan.Options{
			IgnoreATA:    watchIgnoreATA,
			IgnoreNVMe:   watchIgnoreNVMe,
			IgnoreSCSI:   watchIgnoreSCSI,
			Workers:      watchWorkers,
			ProbeTimeout: watchProbeTimeout,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m := monitor.New(cfg, scanner, policy)
		if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("monitoring stopped")
		}
		log.Info().Msg("monitoring stopped")
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchIgnoreATA, "ignore-ata", false, "Skip ATA/SATA devices")
	watchCmd.Flags().BoolVar(&watchIgnoreNVMe, "ignore-nvme", false, "Skip NVMe devices")
	watchCmd.Flags().BoolVar(&watchIgnoreSCSI, "ignore-scsi", false, "Skip SAS/SCSI devices")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 0, "Number of concurrent device probes (0 selects a default)")
	watchCmd.Flags().DurationVar(&watchProbeTimeout, "probe-timeout", devicescan.DefaultProbeTimeout, "Timeout per device probe")
	watchCmd.Flags().StringVar(&watchPolicyFile, "config", "", "Threshold policy file, reloaded on change")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Minute, "Time between grading passes")

	watchCmd.Flags().StringVar(&watchNatsURL, "nats-url", "", "NATS server URL")
	watchCmd.Flags().StringVar(&watchNatsSubject, "nats-subject", "cdi.drive.grade", "NATS subject to publish grades")

	watchCmd.Flags().BoolVar(&watchPromEnabled, "prometheus", false, "Enable Prometheus metrics")
	watchCmd.Flags().IntVar(&watchPromPort, "prometheus-port", 8080, "Prometheus metrics port")
}

func mergeWatchFlagsWithEnv() {
	watchNatsURL = getEnv("NATS_URL", watchNatsURL)
	watchNatsSubject = getEnv("NATS_SUBJECT", watchNatsSubject)
	watchPromEnabled = getEnvBool("PROMETHEUS", watchPromEnabled)
	watchPromPort = getEnvInt("PROMETHEUS_PORT", watchPromPort)
	watchInterval = getEnvDuration("INTERVAL", watchInterval)
	watchWorkers = getEnvInt("WORKERS", watchWorkers)
	watchProbeTimeout = getEnvDuration("PROBE_TIMEOUT", watchProbeTimeout)
	watchPolicyFile = getEnv("POLICY_FILE", watchPolicyFile)
}
