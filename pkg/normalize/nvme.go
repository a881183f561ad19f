// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

// An NVMe data unit is 1000 units of 512 bytes.
const nvmeDataUnitBytes = 512 * 1000

// Controllers occasionally report the composite temperature in Kelvin.
// Anything above this bound cannot be a Celsius drive temperature.
const kelvinFloor = 173

// NVMe converts an NVMe smartctl output into the canonical record.
func NVMe(out *smartctl.Output) grading.CanonicalAttributes {
	attrs := grading.CanonicalAttributes{
		Protocol:     devicescan.ProtocolNVMe,
		HasTelemetry: out.NVMeHealthLog != nil,
	}

	health := out.NVMeHealthLog
	if health != nil {
		attrs.PercentUsed = health.PercentageUsed
		attrs.AvailableSparePct = health.AvailableSpare
		attrs.MediaErrors = health.MediaErrors
		attrs.PowerOnHours = health.PowerOnHours
		attrs.HostReadsBytes = dataUnitBytes(health.DataUnitsRead)
		attrs.HostWritesBytes = dataUnitBytes(health.DataUnitsWritten)
		attrs.WarningTempMinutes = health.WarningTempTime
		attrs.CriticalTempMinutes = health.CriticalCompTime
		attrs.CurrentTemperature = celsius(health.Temperature)
	}

	if attrs.CurrentTemperature == nil && out.Temperature != nil && out.Temperature.Current != 0 {
		attrs.CurrentTemperature = celsius(&out.Temperature.Current)
	}

	if out.SmartStatus != nil {
		passed := out.SmartStatus.Passed
		attrs.SmartStatus = &passed
	}

	attrs.SelfTests = nvmeSelfTests(out.NVMeSelfTestLog)
	return attrs
}

func dataUnitBytes(units *int64) *int64 {
	if units == nil {
		return nil
	}
	bytes := *units * nvmeDataUnitBytes
	return &bytes
}

func celsius(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	if c > kelvinFloor {
		c -= 273
	}
	return &c
}

func nvmeSelfTests(log *smartctl.NVMeSelfTestLog) []grading.SelfTestOutcome {
	if log == nil {
		return nil
	}
	outcomes := make([]grading.SelfTestOutcome, 0, len(log.Table))
	for _, entry := range log.Table {
		desc := entry.SelfTestResult.String
		outcomes = append(outcomes, grading.SelfTestOutcome{
			Passed:      selfTestPassed(false, desc),
			Description: desc,
		})
	}
	return outcomes
}
