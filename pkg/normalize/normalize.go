// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package normalize maps protocol-specific smartctl output onto the
// canonical attribute set the grading engine consumes.
package normalize

import (
	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

// Dispatch routes one probed device to its protocol adapter. USB bridges
// usually tunnel ATA, so they take the ATA path. A nil output or an unknown
// protocol yields a record with no telemetry, which grades as an error.
func Dispatch(protocol devicescan.Protocol, out *smartctl.Output) grading.CanonicalAttributes {
	if out == nil {
		return grading.CanonicalAttributes{Protocol: protocol}
	}
	switch protocol {
	case devicescan.ProtocolATA, devicescan.ProtocolUSB:
		attrs := ATA(out)
		attrs.Protocol = protocol
		return attrs
	case devicescan.ProtocolNVMe:
		return NVMe(out)
	case devicescan.ProtocolSCSI:
		return SCSI(out)
	default:
		return grading.CanonicalAttributes{Protocol: protocol}
	}
}
