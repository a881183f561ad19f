// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicescan

import (
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

// Protocol is a device transport protocol as reported by the scan.
type Protocol string

const (
	ProtocolATA     Protocol = "ATA"
	ProtocolNVMe    Protocol = "NVMe"
	ProtocolSCSI    Protocol = "SCSI"
	ProtocolUSB     Protocol = "USB"
	ProtocolUnknown Protocol = "Unknown"
)

// ParseProtocol maps a smartctl protocol string onto the enum.
func ParseProtocol(s string) Protocol {
	switch s {
	case "ATA":
		return ProtocolATA
	case "NVMe":
		return ProtocolNVMe
	case "SCSI":
		return ProtocolSCSI
	case "USB":
		return ProtocolUSB
	default:
		return ProtocolUnknown
	}
}

// Identity identifies one physical unit within a scan. Model plus serial is
// the uniqueness key; everything else is descriptive.
type Identity struct {
	Path          string   `json:"path"`
	Protocol      Protocol `json:"protocol"`
	Vendor        string   `json:"vendor"`
	Model         string   `json:"model"`
	Serial        string   `json:"serial"`
	Firmware      string   `json:"firmware"`
	MediaType     string   `json:"media_type"`
	CapacityBytes int64    `json:"capacity_bytes"`
}

// Candidate is an enumerated device path before probing. ScanErr is set for
// devices the scan itself already failed to open; they skip probing but
// still occupy their slot in the batch.
type Candidate struct {
	Path     string
	Protocol Protocol
	ScanErr  error
}

// Outcome is the per-device result of discovery. Exactly one of Raw or Err
// is meaningful: Err != nil routes the device to the failures side of the
// batch, and Raw carries the telemetry otherwise. Raw is never mutated after
// the probe returns.
type Outcome struct {
	Identity Identity
	Raw      *smartctl.Output
	Err      error
}

// Failed reports whether this outcome belongs on the failures list.
func (o Outcome) Failed() bool {
	return o.Err != nil
}
