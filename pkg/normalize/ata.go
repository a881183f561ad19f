// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"strings"

	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

const defaultLogicalBlockSize = 512

// ATA converts an ATA/SATA smartctl output into the canonical record.
func ATA(out *smartctl.Output) grading.CanonicalAttributes {
	attrs := grading.CanonicalAttributes{
		Protocol:     devicescan.ProtocolATA,
		HasTelemetry: out.ATAAttributes != nil,
	}

	table := out.ATAAttributes
	attrs.PendingSectors = table.RawValue(197, "Current_Pending_Sector")
	attrs.ReallocatedSectors = table.RawValue(5, "Reallocated_Sector_Ct")
	attrs.MediaErrors = table.RawValue(198, "Offline_Uncorrectable")
	attrs.PercentUsed = ataPercentUsed(table)
	attrs.AvailableSparePct = table.NormalizedValue(173, "Available_Reservd_Space")

	if out.PowerOnTime != nil {
		h := out.PowerOnTime.Hours
		attrs.PowerOnHours = &h
	} else {
		attrs.PowerOnHours = table.RawValue(9, "Power_On_Hours")
	}

	blockSize := out.LogicalBlockSize
	if blockSize <= 0 {
		blockSize = defaultLogicalBlockSize
	}
	attrs.HostReadsBytes = ataTransferBytes(table, 242, "Total_LBAs_Read", "Host_Reads_32MiB", blockSize)
	attrs.HostWritesBytes = ataTransferBytes(table, 241, "Total_LBAs_Written", "Host_Writes_32MiB", blockSize)

	attrs.CurrentTemperature, attrs.MinTemperature, attrs.MaxTemperature = ataTemperature(out)

	if out.SmartStatus != nil {
		passed := out.SmartStatus.Passed
		attrs.SmartStatus = &passed
	}

	attrs.SelfTests = ataSelfTests(out.ATASelfTestLog)
	return attrs
}

// ataPercentUsed derives wear from SSD life attributes. Attribute 231 and
// its named cousins report remaining life, so used is the complement.
func ataPercentUsed(table *smartctl.ATAAttributes) *int64 {
	for _, probe := range []struct {
		id   int64
		name string
	}{
		{231, "SSD_Life_Left"},
		{0, "Percent_Lifetime_Remain"},
		{0, "Wear_Leveling_Count"},
	} {
		attr := table.Lookup(probe.id, probe.name)
		if attr == nil {
			continue
		}
		used := 100 - attr.Value
		if used < 0 {
			used = 0
		}
		return &used
	}
	return nil
}

// ataTransferBytes reads a host transfer counter. LBA counters scale by the
// logical block size; the 32MiB variants some vendors use scale by 32 MiB.
func ataTransferBytes(table *smartctl.ATAAttributes, lbaID int64, lbaName, mib32Name string, blockSize int64) *int64 {
	if raw := table.RawValue(lbaID, lbaName); raw != nil {
		bytes := *raw * blockSize
		return &bytes
	}
	if raw := table.RawValue(0, mib32Name); raw != nil {
		bytes := *raw * 32 * 1024 * 1024
		return &bytes
	}
	return nil
}

// ataTemperature prefers attribute 194's raw string, whose composite form
// also carries lifetime min/max, over the flattened temperature block.
// A zero current reading from the block is treated as absent.
func ataTemperature(out *smartctl.Output) (cur, min, max *int64) {
	if attr := out.ATAAttributes.Lookup(194, "Temperature_Celsius"); attr != nil {
		cur, min, max = parseCompositeTemperature(attr.Raw.String)
		if cur != nil {
			return cur, min, max
		}
	}
	if out.Temperature != nil && out.Temperature.Current != 0 {
		c := out.Temperature.Current
		return &c, nil, nil
	}
	return nil, nil, nil
}

// ataSelfTests flattens the self-test log most recent first. The extended
// log supersedes the standard one when both exist.
func ataSelfTests(log *smartctl.ATASelfTestLog) []grading.SelfTestOutcome {
	if log == nil {
		return nil
	}
	table := log.Standard
	if log.Extended != nil {
		table = log.Extended
	}
	if table == nil {
		return nil
	}
	outcomes := make([]grading.SelfTestOutcome, 0, len(table.Table))
	for _, entry := range table.Table {
		outcomes = append(outcomes, grading.SelfTestOutcome{
			Passed:      selfTestPassed(entry.Status.Passed, entry.Status.String),
			Description: entry.Status.String,
		})
	}
	return outcomes
}

// selfTestPassed folds the explicit passed bit with the description; logs
// from older smartctl versions omit the bit and only carry the text.
func selfTestPassed(passed bool, description string) bool {
	if passed {
		return true
	}
	return !strings.Contains(strings.ToLower(description), "fail")
}
