// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
)

func i64(v int64) *int64 { return &v }

func healthyATA() CanonicalAttributes {
	return CanonicalAttributes{
		Protocol:           devicescan.ProtocolATA,
		HasTelemetry:       true,
		PendingSectors:     i64(0),
		ReallocatedSectors: i64(0),
		PercentUsed:        i64(0),
		PowerOnHours:       i64(8766),
		HostReadsBytes:     i64(1024 * 1024 * 1024 * 1024),
		HostWritesBytes:    i64(1024 * 1024 * 1024 * 1024),
	}
}

func TestGradeHealthyATAPasses(t *testing.T) {
	result := Grade(healthyATA(), DefaultPolicy())

	assert.Equal(t, StatusPass, result.Status)
	assert.Empty(t, result.FailureReason)
	assert.True(t, result.IsPassing())
	require.NotNil(t, result.WorkloadTBPerYear)
	assert.InDelta(t, 2.0, *result.WorkloadTBPerYear, 0.001)
}

func TestGradeIsDeterministic(t *testing.T) {
	attrs := healthyATA()
	attrs.ReallocatedSectors = i64(15)
	attrs.PendingSectors = i64(15)

	first := Grade(attrs, DefaultPolicy())
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Grade(attrs, DefaultPolicy()))
	}
}

func TestGradePendingBeatsReallocated(t *testing.T) {
	attrs := healthyATA()
	attrs.PendingSectors = i64(15)
	attrs.ReallocatedSectors = i64(15)

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonPendingSectors, result.FailureReason)
}

func TestGradeNoTelemetryIsError(t *testing.T) {
	result := Grade(CanonicalAttributes{Protocol: devicescan.ProtocolATA}, DefaultPolicy())

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, ReasonDataReadError, result.FailureReason)
	assert.False(t, result.IsPassing())
}

func TestGradeFailedSelfTestPrecedesAttributeChecks(t *testing.T) {
	attrs := healthyATA()
	attrs.PendingSectors = i64(500)
	attrs.SelfTests = []SelfTestOutcome{
		{Passed: true, Description: "Completed without error"},
		{Passed: false, Description: "Completed: read failure"},
	}

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonFailedSelfTest, result.FailureReason)
}

func TestGradeReallocatedAtThresholdPasses(t *testing.T) {
	attrs := healthyATA()
	attrs.ReallocatedSectors = i64(10)

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusPass, result.Status)
}

func TestGradeATAWithFewReallocatedSectorsPasses(t *testing.T) {
	attrs := healthyATA()
	attrs.ReallocatedSectors = i64(3)

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusPass, result.Status)
	assert.Empty(t, result.FailureReason)
}

func TestGradeNVMeSpareBoundary(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:          devicescan.ProtocolNVMe,
		HasTelemetry:      true,
		PercentUsed:       i64(45),
		AvailableSparePct: i64(97),
	}

	result := Grade(attrs, DefaultPolicy())
	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonAvailableSpare, result.FailureReason)

	attrs.AvailableSparePct = i64(98)
	result = Grade(attrs, DefaultPolicy())
	assert.Equal(t, StatusPass, result.Status)
}

func TestGradeNVMeWornDriveFailsOnSpare(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:          devicescan.ProtocolNVMe,
		HasTelemetry:      true,
		PercentUsed:       i64(45),
		AvailableSparePct: i64(90),
	}

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonAvailableSpare, result.FailureReason)
}

func TestGradeNVMeMediaErrors(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:     devicescan.ProtocolNVMe,
		HasTelemetry: true,
		MediaErrors:  i64(11),
	}

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonMediaErrors, result.FailureReason)
}

func TestGradeNVMeCriticalTempMinutes(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:            devicescan.ProtocolNVMe,
		HasTelemetry:        true,
		CriticalTempMinutes: i64(1),
	}

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonCriticalTemp, result.FailureReason)
}

func TestGradeSCSIDefectsFailAsReallocated(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:           devicescan.ProtocolSCSI,
		HasTelemetry:       true,
		ReallocatedSectors: i64(20),
	}

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonReallocatedSectors, result.FailureReason)
}

func TestGradeWarningTempFlagsDevice(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:           devicescan.ProtocolNVMe,
		HasTelemetry:       true,
		PercentUsed:        i64(4),
		AvailableSparePct:  i64(100),
		WarningTempMinutes: i64(120),
	}

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFlagged, result.Status)
	assert.Equal(t, FlagTempWarning, result.FlagReason)
	assert.True(t, result.IsPassing())
}

func TestGradeWarningTempTakesPriorityOverHeavyUse(t *testing.T) {
	attrs := healthyATA()
	attrs.WarningTempMinutes = i64(120)
	// 600 TiB written in one year of power-on time.
	attrs.PowerOnHours = i64(8766)
	attrs.HostWritesBytes = i64(600 * 1024 * 1024 * 1024 * 1024)

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFlagged, result.Status)
	assert.Equal(t, FlagTempWarning, result.FlagReason)
}

func TestGradeHeavyUseFlag(t *testing.T) {
	attrs := healthyATA()
	attrs.PowerOnHours = i64(8766)
	attrs.HostReadsBytes = i64(300 * 1024 * 1024 * 1024 * 1024)
	attrs.HostWritesBytes = i64(300 * 1024 * 1024 * 1024 * 1024)

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusFlagged, result.Status)
	assert.Equal(t, FlagHeavyUse, result.FlagReason)
	require.NotNil(t, result.WorkloadTBPerYear)
	assert.InDelta(t, 600.0, *result.WorkloadTBPerYear, 0.001)
}

func TestGradeAbsentPowerOnHoursNeverFlagsHeavyUse(t *testing.T) {
	attrs := healthyATA()
	attrs.PowerOnHours = nil
	attrs.HostWritesBytes = i64(9000 * 1024 * 1024 * 1024 * 1024)

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusPass, result.Status)
	assert.Empty(t, result.FlagReason)
	assert.Nil(t, result.WorkloadTBPerYear)
}

func TestGradeAbsentAttributesSkipChecks(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:     devicescan.ProtocolATA,
		HasTelemetry: true,
	}

	result := Grade(attrs, DefaultPolicy())

	assert.Equal(t, StatusPass, result.Status)
}

func TestGradeCustomPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.ReallocatedSectorsMax = 0

	attrs := healthyATA()
	attrs.ReallocatedSectors = i64(1)

	result := Grade(attrs, policy)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, ReasonReallocatedSectors, result.FailureReason)
}

func TestWorkloadUndeterminedWithoutCounters(t *testing.T) {
	attrs := CanonicalAttributes{
		Protocol:     devicescan.ProtocolATA,
		HasTelemetry: true,
		PowerOnHours: i64(10000),
	}

	assert.Nil(t, attrs.WorkloadTBPerYear())
}
