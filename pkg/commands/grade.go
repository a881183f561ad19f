// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/circulardrives/cdi-grading-tool/pkg/cmdexec"
	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/report"
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

var (
	gradeIgnoreATA    bool
	gradeIgnoreNVMe   bool
	gradeIgnoreSCSI   bool
	gradeWorkers      int
	gradeProbeTimeout time.Duration
	gradePolicyFile   string

	gradeCSV        bool
	gradeJSON       bool
	gradeHTML       bool
	gradeXML        bool
	gradeText       bool
	gradeLogForEach bool
	gradeOutputDir  string

	gradeNatsURL     string
	gradeNatsSubject string

	gradePendingMax      int64
	gradeReallocatedMax  int64
	gradeUncorrectedMax  int64
	gradePercentUsedMax  int64
	gradeSpareMin        int64
	gradeWorkloadMax     float64
	gradeWarningTempMax  int64
	gradeCriticalTempMax int64
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Scan all drives once and grade them",
	Run: func(cmd *cobra.Command, args []string) {
		if !smartctl.Installed() {
			log.Fatal().Msg("smartctl not found in PATH, install smartmontools")
		}

		mergeGradeFlagsWithEnv()

		policy := loadGradePolicy(cmd)

		var bar *progressbar.ProgressBar
		scanner := devicescan.NewScanner(smartctl.NewClient(cmdexec.Shell{}), devicescan.Options{
			IgnoreATA:    gradeIgnoreATA,
			IgnoreNVMe:   gradeIgnoreNVMe,
			IgnoreSCSI:   gradeIgnoreSCSI,
			Workers:      gradeWorkers,
			ProbeTimeout: gradeProbeTimeout,
			OnOutcome: func(devicescan.Outcome) {
				if bar != nil {
					_ = bar.Add(1)
				}
			},
		})

		ctx := context.Background()
		candidates, err := scanner.Enumerate(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("device enumeration failed")
		}
		if len(candidates) == 0 {
			log.Fatal().Msg("no devices found")
		}

		bar = progressbar.Default(int64(len(candidates)), "grading")
		outcomes := scanner.Probe(ctx, candidates)
		r := report.Build(outcomes, policy)

		log.Info().
			Str("report_id", r.ID).
			Int("devices", len(r.Entries)).
			Int("passed", r.Passed()).
			Int("failed", r.Failed()).
			Int("errors", r.Errored()).
			Msg("grading complete")

		writeGradeReport(r)
		publishGradeReport(r)
	},
}

func init() {
	gradeCmd.Flags().BoolVar(&gradeIgnoreATA, "ignore-ata", false, "Skip ATA/SATA devices")
	gradeCmd.Flags().BoolVar(&gradeIgnoreNVMe, "ignore-nvme", false, "Skip NVMe devices")
	gradeCmd.Flags().BoolVar(&gradeIgnoreSCSI, "ignore-scsi", false, "Skip SAS/SCSI devices")
	gradeCmd.Flags().IntVar(&gradeWorkers, "workers", 0, "Number of concurrent device probes (0 selects a default)")
	gradeCmd.Flags().DurationVar(&gradeProbeTimeout, "probe-timeout", devicescan.DefaultProbeTimeout, "Timeout per device probe")
	gradeCmd.Flags().StringVar(&gradePolicyFile, "config", "", "Threshold policy file (YAML, TOML or JSON)")

	gradeCmd.Flags().BoolVar(&gradeCSV, "csv", false, "Write a CSV report")
	gradeCmd.Flags().BoolVar(&gradeJSON, "json", false, "Write a JSON report")
	gradeCmd.Flags().BoolVar(&gradeHTML, "html", false, "Write an HTML report")
	gradeCmd.Flags().BoolVar(&gradeXML, "xml", false, "Write an XML report")
	gradeCmd.Flags().BoolVar(&gradeText, "text", false, "Write a plain text report")
	gradeCmd.Flags().BoolVar(&gradeLogForEach, "log-for-each", false, "Additionally write one report file per device")
	gradeCmd.Flags().StringVar(&gradeOutputDir, "output-dir", "logs", "Directory for report files")

	gradeCmd.Flags().StringVar(&gradeNatsURL, "nats-url", "", "NATS server URL")
	gradeCmd.Flags().StringVar(&gradeNatsSubject, "nats-subject", "cdi.drive.grade", "NATS subject to publish grades")

	gradeCmd.Flags().Int64Var(&gradePendingMax, "pending-sectors-max", 0, "Maximum pending sectors before failing")
	gradeCmd.Flags().Int64Var(&gradeReallocatedMax, "reallocated-sectors-max", 0, "Maximum reallocated sectors or grown defects before failing")
	gradeCmd.Flags().Int64Var(&gradeUncorrectedMax, "uncorrectable-errors-max", 0, "Maximum uncorrectable media errors before failing")
	gradeCmd.Flags().Int64Var(&gradePercentUsedMax, "percent-used-max", 0, "Maximum endurance used percentage before failing")
	gradeCmd.Flags().Int64Var(&gradeSpareMin, "available-spare-min", 0, "Available spare percentage at or below which the drive fails")
	gradeCmd.Flags().Float64Var(&gradeWorkloadMax, "workload-max", 0, "Workload in TB per year above which the drive is flagged")
	gradeCmd.Flags().Int64Var(&gradeWarningTempMax, "warning-temp-minutes-max", 0, "Minutes above the warning temperature before flagging")
	gradeCmd.Flags().Int64Var(&gradeCriticalTempMax, "critical-temp-minutes-max", 0, "Minutes above the critical temperature before failing")
}

func mergeGradeFlagsWithEnv() {
	gradeNatsURL = getEnv("NATS_URL", gradeNatsURL)
	gradeNatsSubject = getEnv("NATS_SUBJECT", gradeNatsSubject)
	gradeOutputDir = getEnv("OUTPUT_DIR", gradeOutputDir)
	gradeWorkers = getEnvInt("WORKERS", gradeWorkers)
	gradeProbeTimeout = getEnvDuration("PROBE_TIMEOUT", gradeProbeTimeout)
	gradePolicyFile = getEnv("POLICY_FILE", gradePolicyFile)
	gradeLogForEach = getEnvBool("LOG_FOR_EACH", gradeLogForEach)
}

// loadGradePolicy layers the policy sources: defaults, then the policy
// file, then any threshold flag the user set explicitly.
func loadGradePolicy(cmd *cobra.Command) grading.ThresholdPolicy {
	policy := grading.DefaultPolicy()
	if gradePolicyFile != "" {
		loaded, err := grading.LoadPolicy(gradePolicyFile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load threshold policy")
		}
		policy = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("pending-sectors-max") {
		policy.PendingSectorsMax = gradePendingMax
	}
	if flags.Changed("reallocated-sectors-max") {
		policy.ReallocatedSectorsMax = gradeReallocatedMax
	}
	if flags.Changed("uncorrectable-errors-max") {
		policy.UncorrectableErrorsMax = gradeUncorrectedMax
	}
	if flags.Changed("percent-used-max") {
		policy.PercentUsedMax = gradePercentUsedMax
	}
	if flags.Changed("available-spare-min") {
		policy.AvailableSpareMin = gradeSpareMin
	}
	if flags.Changed("workload-max") {
		policy.WorkloadTBPerYearMax = gradeWorkloadMax
	}
	if flags.Changed("warning-temp-minutes-max") {
		policy.WarningTempMinutesMax = gradeWarningTempMax
	}
	if flags.Changed("critical-temp-minutes-max") {
		policy.CriticalTempMinutesMax = gradeCriticalTempMax
	}
	return policy
}

func selectedFormats() []report.Format {
	var formats []report.Format
	if gradeCSV {
		formats = append(formats, report.FormatCSV)
	}
	if gradeJSON {
		formats = append(formats, report.FormatJSON)
	}
	if gradeHTML {
		formats = append(formats, report.FormatHTML)
	}
	if gradeXML {
		formats = append(formats, report.FormatXML)
	}
	if gradeText {
		formats = append(formats, report.FormatText)
	}
	return formats
}

// writeGradeReport writes the requested file formats, or the text rendering
// to stdout when no format flag was given.
func writeGradeReport(r report.Report) {
	formats := selectedFormats()
	if len(formats) == 0 {
		if err := r.Write(os.Stdout, report.FormatText); err != nil {
			log.Fatal().Err(err).Msg("could not render report")
		}
		return
	}
	if err := r.WriteFiles(gradeOutputDir, formats, gradeLogForEach); err != nil {
		log.Fatal().Err(err).Msg("could not write report files")
	}
}

func publishGradeReport(r report.Report) {
	if gradeNatsURL == "" {
		return
	}
	nc, err := nats.Connect(gradeNatsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to nats")
	}
	defer nc.Close()

	if err := r.PublishToNATS(nc, gradeNatsSubject); err != nil {
		log.Error().Err(err).Msg("error publishing grades to nats")
	}
}
