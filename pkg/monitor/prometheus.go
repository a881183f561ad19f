// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/report"
)

var (
	gradeStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_grade_status",
			Help: "Grade of the drive (0=pass, 1=flagged, 2=fail, 3=error)",
		},
		[]string{"disk", "node", "serial"},
	)

	pendingSectorsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_pending_sectors",
			Help: "Number of pending sectors",
		},
		[]string{"disk", "node", "serial"},
	)

	reallocatedSectorsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_reallocated_sectors",
			Help: "Number of reallocated sectors or grown defects",
		},
		[]string{"disk", "node", "serial"},
	)

	mediaErrorsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_media_errors",
			Help: "Number of uncorrectable media errors",
		},
		[]string{"disk", "node", "serial"},
	)

	percentUsedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_percent_used",
			Help: "Endurance used as a percentage",
		},
		[]string{"disk", "node", "serial"},
	)

	availableSpareGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_available_spare_percentage",
			Help: "Remaining spare capacity as a percentage",
		},
		[]string{"disk", "node", "serial"},
	)

	temperatureGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_temperature_celsius",
			Help: "Drive temperature in Celsius",
		},
		[]string{"disk", "node", "serial"},
	)

	powerOnHoursGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_power_on_hours",
			Help: "Number of hours the drive has been powered on",
		},
		[]string{"disk", "node", "serial"},
	)

	workloadGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drive_workload_tb_per_year",
			Help: "Annualized host transfer volume in TB per year",
		},
		[]string{"disk", "node", "serial"},
	)
)

func init() {
	prometheus.MustRegister(gradeStatusGauge)
	prometheus.MustRegister(pendingSectorsGauge)
	prometheus.MustRegister(reallocatedSectorsGauge)
	prometheus.MustRegister(mediaErrorsGauge)
	prometheus.MustRegister(percentUsedGauge)
	prometheus.MustRegister(availableSpareGauge)
	prometheus.MustRegister(temperatureGauge)
	prometheus.MustRegister(powerOnHoursGauge)
	prometheus.MustRegister(workloadGauge)
}

func statusValue(status grading.Status) float64 {
	switch status {
	case grading.StatusPass:
		return 0
	case grading.StatusFlagged:
		return 1
	case grading.StatusFail:
		return 2
	default:
		return 3
	}
}

// PublishToPrometheus updates the gauges from one report. Attributes a
// device did not report leave their gauge untouched.
func PublishToPrometheus(r report.Report) {
	for _, entry := range r.Entries {
		labels := prometheus.Labels{
			"disk":   entry.Identity.Path,
			"node":   r.Node,
			"serial": entry.Identity.Serial,
		}

		gradeStatusGauge.With(labels).Set(statusValue(entry.Result.Status))

		setGauge(pendingSectorsGauge, labels, entry.Attributes.PendingSectors)
		setGauge(reallocatedSectorsGauge, labels, entry.Attributes.ReallocatedSectors)
		setGauge(mediaErrorsGauge, labels, entry.Attributes.MediaErrors)
		setGauge(percentUsedGauge, labels, entry.Attributes.PercentUsed)
		setGauge(availableSpareGauge, labels, entry.Attributes.AvailableSparePct)
		setGauge(temperatureGauge, labels, entry.Attributes.CurrentTemperature)
		setGauge(powerOnHoursGauge, labels, entry.Attributes.PowerOnHours)

		if entry.Result.WorkloadTBPerYear != nil {
			workloadGauge.With(labels).Set(*entry.Result.WorkloadTBPerYear)
		}
	}
}

func setGauge(vec *prometheus.GaugeVec, labels prometheus.Labels, v *int64) {
	if v != nil {
		vec.With(labels).Set(float64(*v))
	}
}

// StartPrometheusServer exposes /metrics on the given port.
func StartPrometheusServer(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Info().Msgf("starting prometheus metrics server on :%d", port)
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
		if err != nil {
			log.Fatal().Err(err).Msg("error starting prometheus metrics server")
		}
	}()
}
