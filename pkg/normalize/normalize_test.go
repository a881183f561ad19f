// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

func i64(v int64) *int64 { return &v }

func ataAttr(id int64, name string, value, raw int64, rawString string) smartctl.ATAAttribute {
	return smartctl.ATAAttribute{
		ID:    id,
		Name:  name,
		Value: value,
		Raw:   smartctl.AttrRaw{Value: raw, String: rawString},
	}
}

func TestATAMapsCoreAttributes(t *testing.T) {
	out := &smartctl.Output{
		LogicalBlockSize: 512,
		PowerOnTime:      &smartctl.PowerOnTime{Hours: 12000},
		SmartStatus:      &smartctl.SmartStatus{Passed: true},
		ATAAttributes: &smartctl.ATAAttributes{Table: []smartctl.ATAAttribute{
			ataAttr(5, "Reallocated_Sector_Ct", 100, 3, "3"),
			ataAttr(197, "Current_Pending_Sector", 100, 0, "0"),
			ataAttr(198, "Offline_Uncorrectable", 100, 1, "1"),
			ataAttr(194, "Temperature_Celsius", 30, 30, "30 (Min/Max 25/40)"),
			ataAttr(241, "Total_LBAs_Written", 100, 2000000, "2000000"),
			ataAttr(242, "Total_LBAs_Read", 100, 4000000, "4000000"),
		}},
	}

	attrs := ATA(out)

	assert.Equal(t, devicescan.ProtocolATA, attrs.Protocol)
	assert.True(t, attrs.HasTelemetry)
	assert.Equal(t, i64(0), attrs.PendingSectors)
	assert.Equal(t, i64(3), attrs.ReallocatedSectors)
	assert.Equal(t, i64(1), attrs.MediaErrors)
	assert.Equal(t, i64(12000), attrs.PowerOnHours)
	assert.Equal(t, i64(2000000*512), attrs.HostWritesBytes)
	assert.Equal(t, i64(4000000*512), attrs.HostReadsBytes)
	assert.Equal(t, i64(30), attrs.CurrentTemperature)
	assert.Equal(t, i64(25), attrs.MinTemperature)
	assert.Equal(t, i64(40), attrs.MaxTemperature)
	require.NotNil(t, attrs.SmartStatus)
	assert.True(t, *attrs.SmartStatus)
}

func TestATAZeroPendingIsReportedNotAbsent(t *testing.T) {
	out := &smartctl.Output{
		ATAAttributes: &smartctl.ATAAttributes{Table: []smartctl.ATAAttribute{
			ataAttr(197, "Current_Pending_Sector", 100, 0, "0"),
		}},
	}

	attrs := ATA(out)

	require.NotNil(t, attrs.PendingSectors)
	assert.Equal(t, int64(0), *attrs.PendingSectors)
	assert.Nil(t, attrs.ReallocatedSectors)
}

func TestATANoAttributeTableMeansNoTelemetry(t *testing.T) {
	attrs := ATA(&smartctl.Output{})

	assert.False(t, attrs.HasTelemetry)
	assert.Nil(t, attrs.PendingSectors)
}

func TestATAPercentUsedFromSSDLifeLeft(t *testing.T) {
	out := &smartctl.Output{
		ATAAttributes: &smartctl.ATAAttributes{Table: []smartctl.ATAAttribute{
			ataAttr(231, "SSD_Life_Left", 93, 100, "100"),
		}},
	}

	attrs := ATA(out)

	require.NotNil(t, attrs.PercentUsed)
	assert.Equal(t, int64(7), *attrs.PercentUsed)
}

func TestATAPowerOnHoursFallsBackToAttribute(t *testing.T) {
	out := &smartctl.Output{
		ATAAttributes: &smartctl.ATAAttributes{Table: []smartctl.ATAAttribute{
			ataAttr(9, "Power_On_Hours", 95, 4200, "4200"),
		}},
	}

	attrs := ATA(out)

	assert.Equal(t, i64(4200), attrs.PowerOnHours)
}

func TestATASelfTestsPreferExtendedLog(t *testing.T) {
	out := &smartctl.Output{
		ATAAttributes: &smartctl.ATAAttributes{},
		ATASelfTestLog: &smartctl.ATASelfTestLog{
			Standard: &smartctl.ATASelfTestTable{Table: []smartctl.ATASelfTestEntry{
				{Status: smartctl.ATASelfTestStatus{String: "Completed without error", Passed: true}},
			}},
			Extended: &smartctl.ATASelfTestTable{Table: []smartctl.ATASelfTestEntry{
				{Status: smartctl.ATASelfTestStatus{String: "Completed: read failure"}},
				{Status: smartctl.ATASelfTestStatus{String: "Completed without error", Passed: true}},
			}},
		},
	}

	attrs := ATA(out)

	require.Len(t, attrs.SelfTests, 2)
	assert.False(t, attrs.SelfTests[0].Passed)
	assert.True(t, attrs.SelfTests[1].Passed)
}

func TestNVMeMapsHealthLog(t *testing.T) {
	out := &smartctl.Output{
		NVMeHealthLog: &smartctl.NVMeHealthLog{
			PercentageUsed:   i64(45),
			AvailableSpare:   i64(90),
			MediaErrors:      i64(0),
			PowerOnHours:     i64(9000),
			DataUnitsRead:    i64(1000),
			DataUnitsWritten: i64(2000),
			Temperature:      i64(38),
			WarningTempTime:  i64(120),
			CriticalCompTime: i64(0),
		},
	}

	attrs := NVMe(out)

	assert.Equal(t, devicescan.ProtocolNVMe, attrs.Protocol)
	assert.True(t, attrs.HasTelemetry)
	assert.Equal(t, i64(45), attrs.PercentUsed)
	assert.Equal(t, i64(90), attrs.AvailableSparePct)
	assert.Equal(t, i64(0), attrs.MediaErrors)
	assert.Equal(t, i64(1000*512000), attrs.HostReadsBytes)
	assert.Equal(t, i64(2000*512000), attrs.HostWritesBytes)
	assert.Equal(t, i64(38), attrs.CurrentTemperature)
	assert.Equal(t, i64(120), attrs.WarningTempMinutes)
	assert.Equal(t, i64(0), attrs.CriticalTempMinutes)
}

func TestNVMeKelvinTemperatureConverted(t *testing.T) {
	out := &smartctl.Output{
		NVMeHealthLog: &smartctl.NVMeHealthLog{Temperature: i64(311)},
	}

	attrs := NVMe(out)

	assert.Equal(t, i64(38), attrs.CurrentTemperature)
}

func TestNVMeNoHealthLogMeansNoTelemetry(t *testing.T) {
	attrs := NVMe(&smartctl.Output{})

	assert.False(t, attrs.HasTelemetry)
}

func TestSCSIGrownDefectsBecomeReallocated(t *testing.T) {
	out := &smartctl.Output{
		SCSIGrownDefectList: i64(20),
		PowerOnTime:         &smartctl.PowerOnTime{Hours: 30000},
	}

	attrs := SCSI(out)

	assert.Equal(t, devicescan.ProtocolSCSI, attrs.Protocol)
	assert.True(t, attrs.HasTelemetry)
	assert.Equal(t, i64(20), attrs.ReallocatedSectors)
	assert.Equal(t, i64(30000), attrs.PowerOnHours)
}

func TestSCSIUncorrectedErrorsSumReadWriteAndNonzeroVerify(t *testing.T) {
	out := &smartctl.Output{
		SCSIErrorCounterLog: &smartctl.SCSIErrorCounters{
			Read:   &smartctl.SCSIErrorCounter{TotalUncorrectedErrors: 2},
			Write:  &smartctl.SCSIErrorCounter{TotalUncorrectedErrors: 1},
			Verify: &smartctl.SCSIErrorCounter{TotalUncorrectedErrors: 0},
		},
	}

	attrs := SCSI(out)

	assert.Equal(t, i64(3), attrs.MediaErrors)

	out.SCSIErrorCounterLog.Verify.TotalUncorrectedErrors = 4
	attrs = SCSI(out)
	assert.Equal(t, i64(7), attrs.MediaErrors)
}

func TestSCSISelfTestsFromNumberedEntries(t *testing.T) {
	out := &smartctl.Output{
		SCSIGrownDefectList: i64(0),
		SCSISelfTests: []smartctl.SCSISelfTest{
			{Result: smartctl.VersionString{String: "Completed"}},
			{Result: smartctl.VersionString{String: "Completed, segment failed"}},
		},
	}

	attrs := SCSI(out)

	require.Len(t, attrs.SelfTests, 2)
	assert.True(t, attrs.SelfTests[0].Passed)
	assert.False(t, attrs.SelfTests[1].Passed)
}

func TestDispatchRoutesByProtocol(t *testing.T) {
	ata := &smartctl.Output{ATAAttributes: &smartctl.ATAAttributes{}}
	nvme := &smartctl.Output{NVMeHealthLog: &smartctl.NVMeHealthLog{}}
	scsi := &smartctl.Output{SCSIGrownDefectList: i64(0)}

	assert.Equal(t, devicescan.ProtocolATA, Dispatch(devicescan.ProtocolATA, ata).Protocol)
	assert.Equal(t, devicescan.ProtocolNVMe, Dispatch(devicescan.ProtocolNVMe, nvme).Protocol)
	assert.Equal(t, devicescan.ProtocolSCSI, Dispatch(devicescan.ProtocolSCSI, scsi).Protocol)
	assert.Equal(t, devicescan.ProtocolUSB, Dispatch(devicescan.ProtocolUSB, ata).Protocol)
}

func TestDispatchNilOutputHasNoTelemetry(t *testing.T) {
	attrs := Dispatch(devicescan.ProtocolNVMe, nil)

	assert.False(t, attrs.HasTelemetry)
}

func TestParseCompositeTemperature(t *testing.T) {
	cur, min, max := parseCompositeTemperature("30 (Min/Max 25/40)")
	require.NotNil(t, cur)
	assert.Equal(t, int64(30), *cur)
	assert.Equal(t, i64(25), min)
	assert.Equal(t, i64(40), max)

	cur, min, max = parseCompositeTemperature("27")
	assert.Equal(t, i64(27), cur)
	assert.Nil(t, min)
	assert.Nil(t, max)

	cur, min, max = parseCompositeTemperature("garbage")
	assert.Nil(t, cur)
	assert.Nil(t, min)
	assert.Nil(t, max)
}
