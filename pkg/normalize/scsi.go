// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

// SCSI converts a SAS/SCSI smartctl output into the canonical record. The
// grown defect list plays the role of the ATA reallocated sector count, and
// the uncorrected error counters feed the media error total.
func SCSI(out *smartctl.Output) grading.CanonicalAttributes {
	attrs := grading.CanonicalAttributes{
		Protocol: devicescan.ProtocolSCSI,
		HasTelemetry: out.SCSIGrownDefectList != nil ||
			out.SCSIErrorCounterLog != nil ||
			out.SmartStatus != nil,
	}

	if out.SCSIGrownDefectList != nil {
		defects := *out.SCSIGrownDefectList
		attrs.ReallocatedSectors = &defects
	}

	attrs.MediaErrors = scsiUncorrectedErrors(out.SCSIErrorCounterLog)

	if out.PowerOnTime != nil {
		h := out.PowerOnTime.Hours
		attrs.PowerOnHours = &h
	}

	if out.Temperature != nil && out.Temperature.Current != 0 {
		c := out.Temperature.Current
		attrs.CurrentTemperature = &c
	}

	if out.SmartStatus != nil {
		passed := out.SmartStatus.Passed
		attrs.SmartStatus = &passed
	}

	attrs.SelfTests = scsiSelfTests(out.SCSISelfTests)
	return attrs
}

// scsiUncorrectedErrors sums read and write uncorrected totals, folding in
// verify only when it is nonzero so idle verify counters do not mask a
// healthy drive reporting zeros elsewhere.
func scsiUncorrectedErrors(log *smartctl.SCSIErrorCounters) *int64 {
	if log == nil {
		return nil
	}
	if log.Read == nil && log.Write == nil && log.Verify == nil {
		return nil
	}
	var total int64
	if log.Read != nil {
		total += log.Read.TotalUncorrectedErrors
	}
	if log.Write != nil {
		total += log.Write.TotalUncorrectedErrors
	}
	if log.Verify != nil && log.Verify.TotalUncorrectedErrors > 0 {
		total += log.Verify.TotalUncorrectedErrors
	}
	return &total
}

func scsiSelfTests(tests []smartctl.SCSISelfTest) []grading.SelfTestOutcome {
	if len(tests) == 0 {
		return nil
	}
	outcomes := make([]grading.SelfTestOutcome, 0, len(tests))
	for _, test := range tests {
		desc := test.Result.String
		outcomes = append(outcomes, grading.SelfTestOutcome{
			Passed:      selfTestPassed(false, desc),
			Description: desc,
		})
	}
	return outcomes
}
