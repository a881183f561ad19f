// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package grading

import (
	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
)

// hoursPerYear is the mean Gregorian year, used for workload normalization.
const hoursPerYear = 8766.0

const tib = 1024 * 1024 * 1024 * 1024

// CanonicalAttributes is the protocol-agnostic health record one normalizer
// pass produces for a device. Every numeric field is optional: nil means the
// tooling did not report it, which is a distinct state from zero. Zero
// pending sectors is a passing value; nil pending sectors excludes the
// pending-sector check entirely.
type CanonicalAttributes struct {
	Protocol devicescan.Protocol `json:"protocol"`

	// HasTelemetry is false when no usable telemetry was obtained at all,
	// which grades as a data-read error before any other rule runs.
	HasTelemetry bool `json:"has_telemetry"`

	PendingSectors     *int64 `json:"pending_sectors,omitempty"`
	ReallocatedSectors *int64 `json:"reallocated_sectors,omitempty"`
	// MediaErrors carries NVMe media errors, the summed SCSI uncorrected
	// error counters, or the ATA offline-uncorrectable count.
	MediaErrors       *int64 `json:"media_errors,omitempty"`
	PercentUsed       *int64 `json:"percent_used,omitempty"`
	AvailableSparePct *int64 `json:"available_spare_pct,omitempty"`

	PowerOnHours    *int64 `json:"power_on_hours,omitempty"`
	HostReadsBytes  *int64 `json:"host_reads_bytes,omitempty"`
	HostWritesBytes *int64 `json:"host_writes_bytes,omitempty"`

	CurrentTemperature  *int64 `json:"current_temperature,omitempty"`
	MinTemperature      *int64 `json:"min_temperature,omitempty"`
	MaxTemperature      *int64 `json:"max_temperature,omitempty"`
	WarningTempMinutes  *int64 `json:"warning_temp_minutes,omitempty"`
	CriticalTempMinutes *int64 `json:"critical_temp_minutes,omitempty"`

	SmartStatus *bool             `json:"smart_status,omitempty"`
	SelfTests   []SelfTestOutcome `json:"self_tests,omitempty"`
}

// SelfTestOutcome is one logged self-test result, historical or current,
// ordered most recent first as the tooling reports them.
type SelfTestOutcome struct {
	Passed      bool   `json:"passed"`
	Description string `json:"description"`
}

// WorkloadTBPerYear derives the device workload in TB per year from host
// reads, writes and power-on time. Returns nil ("undetermined") when
// power-on hours are absent or non-positive, or when neither transfer
// counter was reported; an undetermined workload must never flag a device
// as heavily used.
func (c CanonicalAttributes) WorkloadTBPerYear() *float64 {
	if c.PowerOnHours == nil || *c.PowerOnHours <= 0 {
		return nil
	}
	if c.HostReadsBytes == nil && c.HostWritesBytes == nil {
		return nil
	}

	var totalBytes int64
	if c.HostReadsBytes != nil {
		totalBytes += *c.HostReadsBytes
	}
	if c.HostWritesBytes != nil {
		totalBytes += *c.HostWritesBytes
	}

	years := float64(*c.PowerOnHours) / hoursPerYear
	workload := (float64(totalBytes) / float64(tib)) / years
	return &workload
}
