// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// ScanOutput is the root of `smartctl --scan-open --json`.
type ScanOutput struct {
	JSONFormatVersion []int64      `json:"json_format_version"`
	Smartctl          Details      `json:"smartctl"`
	Devices           []ScanDevice `json:"devices"`
}

// ScanDevice is one enumerated device. OpenError is set when smartctl could
// not open the device node; such devices are still part of the scan result.
type ScanDevice struct {
	Name      string `json:"name"`
	InfoName  string `json:"info_name"`
	Type      string `json:"type"`
	Protocol  string `json:"protocol"`
	OpenError string `json:"open_error,omitempty"`
}

// Output is the decoded JSON of a full per-device smartctl invocation.
// Fields whose absence is meaningful to normalization are pointers; decoding
// leaves them nil when the tool did not report them.
type Output struct {
	Device            ScanDevice          `json:"device"`
	ModelFamily       string              `json:"model_family,omitempty"`
	ModelName         string              `json:"model_name"`
	SerialNumber      string              `json:"serial_number"`
	FirmwareVersion   string              `json:"firmware_version"`
	Vendor            string              `json:"vendor,omitempty"`
	Product           string              `json:"product,omitempty"`
	RotationRate      *int64              `json:"rotation_rate,omitempty"`
	FormFactor        *FormFactor         `json:"form_factor,omitempty"`
	LogicalBlockSize  int64               `json:"logical_block_size,omitempty"`
	PhysicalBlockSize int64               `json:"physical_block_size,omitempty"`
	UserCapacity      *Capacity           `json:"user_capacity,omitempty"`
	PowerOnTime       *PowerOnTime        `json:"power_on_time,omitempty"`
	SmartSupport      *SmartSupport       `json:"smart_support,omitempty"`
	SmartStatus       *SmartStatus        `json:"smart_status,omitempty"`
	Temperature       *Temperature        `json:"temperature,omitempty"`
	Smartctl          Details             `json:"smartctl"`

	// ATA
	ATAVersion         *VersionString     `json:"ata_version,omitempty"`
	SATAVersion        *VersionString     `json:"sata_version,omitempty"`
	ATAAttributes      *ATAAttributes     `json:"ata_smart_attributes,omitempty"`
	ATASmartData       *ATASmartData      `json:"ata_smart_data,omitempty"`
	ATASelfTestLog     *ATASelfTestLog    `json:"ata_smart_self_test_log,omitempty"`

	// SCSI
	SCSIVendor          string              `json:"scsi_vendor,omitempty"`
	SCSIProduct         string              `json:"scsi_product,omitempty"`
	SCSIModelName       string              `json:"scsi_model_name,omitempty"`
	SCSIRevision        string              `json:"scsi_revision,omitempty"`
	SCSIVersion         string              `json:"scsi_version,omitempty"`
	SCSIGrownDefectList *int64              `json:"scsi_grown_defect_list,omitempty"`
	SCSIErrorCounterLog *SCSIErrorCounters  `json:"scsi_error_counter_log,omitempty"`
	// Populated from the numbered scsi_self_test_N keys, in numeric order.
	SCSISelfTests []SCSISelfTest `json:"-"`

	// NVMe
	NVMeVersion       *VersionString  `json:"nvme_version,omitempty"`
	NVMeTotalCapacity int64           `json:"nvme_total_capacity,omitempty"`
	NVMeHealthLog     *NVMeHealthLog  `json:"nvme_smart_health_information_log,omitempty"`
	NVMeSelfTestLog   *NVMeSelfTestLog `json:"nvme_self_test_log,omitempty"`
}

// UnmarshalJSON decodes the typed fields and then sweeps the raw object for
// the numbered scsi_self_test_N keys smartctl emits for SAS drives.
func (o *Output) UnmarshalJSON(data []byte) error {
	type plain Output
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Output(p)

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}

	const prefix = "scsi_self_test_"
	type numbered struct {
		n   int
		raw json.RawMessage
	}
	var found []numbered
	for key, raw := range keyed {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, raw: raw})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	for _, entry := range found {
		var st SCSISelfTest
		if err := json.Unmarshal(entry.raw, &st); err != nil {
			continue
		}
		o.SCSISelfTests = append(o.SCSISelfTests, st)
	}
	return nil
}

// Details describes the smartctl invocation itself.
type Details struct {
	Argv       []string `json:"argv"`
	Version    []int64  `json:"version"`
	ExitStatus int64    `json:"exit_status"`
}

type VersionString struct {
	String string `json:"string"`
	Value  int64  `json:"value,omitempty"`
}

type FormFactor struct {
	Name string `json:"name"`
}

type Capacity struct {
	Blocks int64 `json:"blocks"`
	Bytes  int64 `json:"bytes"`
}

type PowerOnTime struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes,omitempty"`
}

type SmartSupport struct {
	Available bool `json:"available"`
	Enabled   bool `json:"enabled"`
}

type SmartStatus struct {
	Passed bool `json:"passed"`
}

type Temperature struct {
	Current   int64 `json:"current"`
	DriveTrip int64 `json:"drive_trip,omitempty"`
}

// ATAAttributes is the ATA SMART attribute table.
type ATAAttributes struct {
	Revision int64          `json:"revision"`
	Table    []ATAAttribute `json:"table"`
}

// ATAAttribute is a single table entry.
type ATAAttribute struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Value      int64   `json:"value"`
	Worst      int64   `json:"worst"`
	Thresh     int64   `json:"thresh"`
	WhenFailed string  `json:"when_failed,omitempty"`
	Raw        AttrRaw `json:"raw"`
}

// AttrRaw carries both renderings of an attribute's raw value. Some vendors
// pack composites into String ("30 (Min/Max 25/40)") that Value flattens.
type AttrRaw struct {
	Value  int64  `json:"value"`
	String string `json:"string"`
}

// ATASmartData holds the self-test capability block.
type ATASmartData struct {
	Capabilities ATACapabilities `json:"capabilities"`
}

type ATACapabilities struct {
	SelfTestsSupported           bool `json:"self_tests_supported"`
	ConveyanceSelfTestSupported  bool `json:"conveyance_self_test_supported"`
	SelectiveSelfTestSupported   bool `json:"selective_self_test_supported"`
}

// ATASelfTestLog may carry a standard and an extended table; the extended
// log supersedes the standard one when both are present.
type ATASelfTestLog struct {
	Standard *ATASelfTestTable `json:"standard,omitempty"`
	Extended *ATASelfTestTable `json:"extended,omitempty"`
}

type ATASelfTestTable struct {
	RevisionNumber int64             `json:"revision,omitempty"`
	Count          int64             `json:"count,omitempty"`
	ErrorCountTotal int64            `json:"error_count_total,omitempty"`
	Table          []ATASelfTestEntry `json:"table,omitempty"`
}

type ATASelfTestEntry struct {
	Type          VersionString     `json:"type"`
	Status        ATASelfTestStatus `json:"status"`
	LifetimeHours int64             `json:"lifetime_hours"`
}

type ATASelfTestStatus struct {
	Value  int64  `json:"value"`
	String string `json:"string"`
	Passed bool   `json:"passed,omitempty"`
}

// SCSIErrorCounters is the SCSI error counter log page.
type SCSIErrorCounters struct {
	Read   *SCSIErrorCounter `json:"read,omitempty"`
	Write  *SCSIErrorCounter `json:"write,omitempty"`
	Verify *SCSIErrorCounter `json:"verify,omitempty"`
}

type SCSIErrorCounter struct {
	ErrorsCorrectedByECCFast    int64  `json:"errors_corrected_by_eccfast"`
	ErrorsCorrectedByECCDelayed int64  `json:"errors_corrected_by_eccdelayed"`
	ErrorsCorrectedByReReads    int64  `json:"errors_corrected_by_rereads_rewrites"`
	TotalErrorsCorrected        int64  `json:"total_errors_corrected"`
	GigabytesProcessed          string `json:"gigabytes_processed"`
	TotalUncorrectedErrors      int64  `json:"total_uncorrected_errors"`
}

// SCSISelfTest is one scsi_self_test_N entry.
type SCSISelfTest struct {
	Code        VersionString `json:"code"`
	Result      VersionString `json:"result"`
	PowerOnTime *PowerOnTime  `json:"power_on_time,omitempty"`
}

// NVMeHealthLog is the SMART / Health Information log (02h). All counters
// are pointers so a field the controller did not report stays distinguishable
// from a legitimate zero.
type NVMeHealthLog struct {
	CriticalWarning         *int64 `json:"critical_warning,omitempty"`
	Temperature             *int64 `json:"temperature,omitempty"`
	AvailableSpare          *int64 `json:"available_spare,omitempty"`
	AvailableSpareThreshold *int64 `json:"available_spare_threshold,omitempty"`
	PercentageUsed          *int64 `json:"percentage_used,omitempty"`
	DataUnitsRead           *int64 `json:"data_units_read,omitempty"`
	DataUnitsWritten        *int64 `json:"data_units_written,omitempty"`
	HostReads               *int64 `json:"host_reads,omitempty"`
	HostWrites              *int64 `json:"host_writes,omitempty"`
	ControllerBusyTime      *int64 `json:"controller_busy_time,omitempty"`
	PowerCycles             *int64 `json:"power_cycles,omitempty"`
	PowerOnHours            *int64 `json:"power_on_hours,omitempty"`
	UnsafeShutdowns         *int64 `json:"unsafe_shutdowns,omitempty"`
	MediaErrors             *int64 `json:"media_errors,omitempty"`
	NumErrLogEntries        *int64 `json:"num_err_log_entries,omitempty"`
	WarningTempTime         *int64 `json:"warning_temp_time,omitempty"`
	CriticalCompTime        *int64 `json:"critical_comp_time,omitempty"`
}

// NVMeSelfTestLog is the Device Self-test log (06h).
type NVMeSelfTestLog struct {
	CurrentSelfTestOperation *VersionString      `json:"current_self_test_operation,omitempty"`
	Table                    []NVMeSelfTestEntry `json:"table,omitempty"`
}

type NVMeSelfTestEntry struct {
	SelfTestCode   VersionString `json:"self_test_code"`
	SelfTestResult VersionString `json:"self_test_result"`
	PowerOnHours   int64         `json:"power_on_hours,omitempty"`
}
