// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package grading

import (
	"github.com/rs/zerolog/log"

	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
)

// Status is the overall grade of a device. Flagged is a passing status that
// carries a caveat; IsPassing treats it as a pass.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusFlagged Status = "flagged"
	StatusError   Status = "error"
)

// FailureReason explains a Fail or Error status. Reasons are mutually
// exclusive: the first matching rule decides.
type FailureReason string

const (
	ReasonDataReadError      FailureReason = "data_read_error"
	ReasonFailedSelfTest     FailureReason = "failed_self_test"
	ReasonPendingSectors     FailureReason = "pending_sectors"
	ReasonReallocatedSectors FailureReason = "reallocated_sectors"
	ReasonPercentUsed        FailureReason = "percent_used"
	ReasonAvailableSpare     FailureReason = "available_spare"
	ReasonMediaErrors        FailureReason = "media_errors"
	ReasonCriticalTemp       FailureReason = "critical_temp"
)

// FlagReason is a non-fatal caveat on an otherwise passing device.
type FlagReason string

const (
	FlagHeavyUse    FlagReason = "heavy_use"
	FlagTempWarning FlagReason = "temp_warning"
)

// GradeResult is the outcome of one grading pass over one device.
type GradeResult struct {
	Status            Status        `json:"status"`
	FailureReason     FailureReason `json:"failure_reason,omitempty"`
	FlagReason        FlagReason    `json:"flag_reason,omitempty"`
	WorkloadTBPerYear *float64      `json:"workload_tb_per_year,omitempty"`
}

// IsPassing reports whether the device is reusable (flagged counts).
func (r GradeResult) IsPassing() bool {
	return r.Status == StatusPass || r.Status == StatusFlagged
}

// Grade applies the threshold policy to one canonical record. It is pure and
// deterministic; the rule order below is fixed and short-circuiting. A field
// the device did not report never satisfies a comparison: the corresponding
// check is simply skipped. Any panic while evaluating is contained here and
// converted to a data-read error for this device only.
func Grade(attrs CanonicalAttributes, policy ThresholdPolicy) (result GradeResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("grading panicked; device marked as error")
			result = GradeResult{Status: StatusError, FailureReason: ReasonDataReadError}
		}
	}()

	if !attrs.HasTelemetry {
		return GradeResult{Status: StatusError, FailureReason: ReasonDataReadError}
	}

	for _, st := range attrs.SelfTests {
		if !st.Passed {
			return GradeResult{Status: StatusFail, FailureReason: ReasonFailedSelfTest}
		}
	}

	if attrs.Protocol == devicescan.ProtocolNVMe {
		if reason, failed := gradeNVMe(attrs, policy); failed {
			return GradeResult{Status: StatusFail, FailureReason: reason}
		}
	} else {
		if reason, failed := gradeATASCSI(attrs, policy); failed {
			return GradeResult{Status: StatusFail, FailureReason: reason}
		}
	}

	workload := attrs.WorkloadTBPerYear()

	if exceedsMax(attrs.WarningTempMinutes, policy.WarningTempMinutesMax) {
		return GradeResult{Status: StatusFlagged, FlagReason: FlagTempWarning, WorkloadTBPerYear: workload}
	}
	if workload != nil && *workload > policy.WorkloadTBPerYearMax {
		return GradeResult{Status: StatusFlagged, FlagReason: FlagHeavyUse, WorkloadTBPerYear: workload}
	}

	return GradeResult{Status: StatusPass, WorkloadTBPerYear: workload}
}

func gradeATASCSI(attrs CanonicalAttributes, policy ThresholdPolicy) (FailureReason, bool) {
	switch {
	case exceedsMax(attrs.PendingSectors, policy.PendingSectorsMax):
		return ReasonPendingSectors, true
	case exceedsMax(attrs.ReallocatedSectors, policy.ReallocatedSectorsMax):
		return ReasonReallocatedSectors, true
	case exceedsMax(attrs.PercentUsed, policy.PercentUsedMax):
		return ReasonPercentUsed, true
	case atOrBelowMin(attrs.AvailableSparePct, policy.AvailableSpareMin):
		return ReasonAvailableSpare, true
	}
	return "", false
}

func gradeNVMe(attrs CanonicalAttributes, policy ThresholdPolicy) (FailureReason, bool) {
	switch {
	case exceedsMax(attrs.PercentUsed, policy.PercentUsedMax):
		return ReasonPercentUsed, true
	case atOrBelowMin(attrs.AvailableSparePct, policy.AvailableSpareMin):
		return ReasonAvailableSpare, true
	case exceedsMax(attrs.MediaErrors, policy.UncorrectableErrorsMax):
		return ReasonMediaErrors, true
	case exceedsMax(attrs.CriticalTempMinutes, policy.CriticalTempMinutesMax):
		return ReasonCriticalTemp, true
	}
	return "", false
}

// exceedsMax is the single place "not reported" is kept out of comparisons.
func exceedsMax(v *int64, max int64) bool {
	return v != nil && *v > max
}

func atOrBelowMin(v *int64, min int64) bool {
	return v != nil && *v <= min
}
