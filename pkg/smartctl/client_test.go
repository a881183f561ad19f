// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulardrives/cdi-grading-tool/pkg/cmdexec"
)

// fakeExecutor returns canned results keyed by the joined argument list.
type fakeExecutor struct {
	results map[string]cmdexec.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeExecutor) Run(ctx context.Context, name string, args ...string) (cmdexec.Result, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, name+" "+key)
	if err, ok := f.errs[key]; ok {
		return cmdexec.Result{}, err
	}
	return f.results[key], nil
}

const scanJSON = `{
  "json_format_version": [1, 0],
  "smartctl": {"version": [7, 4], "exit_status": 0},
  "devices": [
    {"name": "/dev/sda", "info_name": "/dev/sda", "type": "sat", "protocol": "ATA"},
    {"name": "/dev/nvme0", "info_name": "/dev/nvme0", "type": "nvme", "protocol": "NVMe"},
    {"name": "/dev/sdb", "info_name": "/dev/sdb", "type": "scsi", "protocol": "SCSI", "open_error": "Permission denied"}
  ]
}`

func TestScanParsesDevicesAndOpenErrors(t *testing.T) {
	exec := &fakeExecutor{results: map[string]cmdexec.Result{
		"--scan-open --json": {Stdout: []byte(scanJSON)},
	}}

	out, err := NewClient(exec).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, out.Devices, 3)
	assert.Equal(t, "/dev/sda", out.Devices[0].Name)
	assert.Equal(t, "ATA", out.Devices[0].Protocol)
	assert.Empty(t, out.Devices[0].OpenError)
	assert.Equal(t, "Permission denied", out.Devices[2].OpenError)
}

const nvmeJSON = `{
  "device": {"name": "/dev/nvme0", "type": "nvme", "protocol": "NVMe"},
  "model_name": "Samsung SSD 980 PRO 1TB",
  "serial_number": "S5GXNX0T123456",
  "firmware_version": "5B2QGXA7",
  "smart_status": {"passed": true},
  "nvme_smart_health_information_log": {
    "critical_warning": 0,
    "temperature": 311,
    "available_spare": 100,
    "percentage_used": 3,
    "data_units_read": 1000,
    "data_units_written": 2000,
    "power_on_hours": 500,
    "media_errors": 0,
    "warning_temp_time": 0
  }
}`

func TestCollectDecodesNVMeHealthLogPointers(t *testing.T) {
	exec := &fakeExecutor{results: map[string]cmdexec.Result{
		"--json --info --health --attributes --log=error --log=selftest --tolerance=verypermissive --nocheck=standby /dev/nvme0": {Stdout: []byte(nvmeJSON)},
	}}

	out, err := NewClient(exec).Collect(context.Background(), "/dev/nvme0")
	require.NoError(t, err)

	require.NotNil(t, out.NVMeHealthLog)
	require.NotNil(t, out.NVMeHealthLog.MediaErrors)
	assert.Equal(t, int64(0), *out.NVMeHealthLog.MediaErrors)
	require.NotNil(t, out.NVMeHealthLog.Temperature)
	assert.Equal(t, int64(311), *out.NVMeHealthLog.Temperature)
	assert.Nil(t, out.NVMeHealthLog.CriticalCompTime)
	require.NotNil(t, out.SmartStatus)
	assert.True(t, out.SmartStatus.Passed)
}

const scsiJSON = `{
  "device": {"name": "/dev/sdb", "type": "scsi", "protocol": "SCSI"},
  "scsi_vendor": "SEAGATE",
  "scsi_model_name": "ST14000NM0018",
  "serial_number": "ZHZ0ABCD",
  "scsi_grown_defect_list": 0,
  "scsi_self_test_1": {"code": {"value": 1, "string": "Background short"}, "result": {"value": 0, "string": "Completed"}},
  "scsi_self_test_0": {"code": {"value": 2, "string": "Background long"}, "result": {"value": 7, "string": "Completed, segment failed"}},
  "scsi_self_test_10": {"code": {"value": 1, "string": "Background short"}, "result": {"value": 0, "string": "Completed"}}
}`

func TestCollectSweepsNumberedSCSISelfTests(t *testing.T) {
	exec := &fakeExecutor{results: map[string]cmdexec.Result{
		"--json --info --health --attributes --log=error --log=selftest --tolerance=verypermissive --nocheck=standby /dev/sdb": {Stdout: []byte(scsiJSON)},
	}}

	out, err := NewClient(exec).Collect(context.Background(), "/dev/sdb")
	require.NoError(t, err)

	require.NotNil(t, out.SCSIGrownDefectList)
	assert.Equal(t, int64(0), *out.SCSIGrownDefectList)

	require.Len(t, out.SCSISelfTests, 3)
	assert.Equal(t, "Completed, segment failed", out.SCSISelfTests[0].Result.String)
	assert.Equal(t, "Completed", out.SCSISelfTests[1].Result.String)
	// Numeric ordering, not lexical: _10 sorts after _1.
	assert.Equal(t, int64(1), out.SCSISelfTests[2].Code.Value)
}

func TestCollectToleratesWarningExitWithOutput(t *testing.T) {
	exec := &fakeExecutor{results: map[string]cmdexec.Result{
		"--json --info /dev/sda": {ExitCode: 64, Stdout: []byte(`{"device": {"name": "/dev/sda", "protocol": "ATA"}}`)},
	}}

	out, err := NewClient(exec).Probe(context.Background(), "/dev/sda")
	require.NoError(t, err)
	assert.Equal(t, "ATA", out.Device.Protocol)
}

func TestCollectFailsOnExitWithoutOutput(t *testing.T) {
	exec := &fakeExecutor{results: map[string]cmdexec.Result{
		"--json --info /dev/sda": {ExitCode: 2, Stderr: []byte("Device open failed")},
	}}

	_, err := NewClient(exec).Probe(context.Background(), "/dev/sda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited 2")
}

func TestCollectFailsOnInvalidJSON(t *testing.T) {
	exec := &fakeExecutor{results: map[string]cmdexec.Result{
		"--json --info /dev/sda": {Stdout: []byte("not json")},
	}}

	_, err := NewClient(exec).Probe(context.Background(), "/dev/sda")
	assert.Error(t, err)
}
