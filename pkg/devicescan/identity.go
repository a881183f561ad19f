// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicescan

import (
	"regexp"
	"strings"

	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

var vendorPatterns = []struct {
	pattern *regexp.Regexp
	vendor  string
}{
	{regexp.MustCompile(`(?i)TOSHIBA`), "Toshiba"},
	{regexp.MustCompile(`(?i)^MG0[345678]`), "Toshiba"},
	{regexp.MustCompile(`(?i)^THN`), "Toshiba"},
	{regexp.MustCompile(`(?i)INTEL`), "Intel"},
	{regexp.MustCompile(`(?i)^SSDS`), "Intel"},
	{regexp.MustCompile(`(?i)KIOXIA`), "Kioxia"},
	{regexp.MustCompile(`(?i)WESTERN`), "Western Digital"},
	{regexp.MustCompile(`(?i)WDC`), "Western Digital"},
	{regexp.MustCompile(`(?i)^WD[0-9]`), "Western Digital"},
	{regexp.MustCompile(`(?i)SEAGATE`), "Seagate"},
	{regexp.MustCompile(`(?i)^ST[0-9]`), "Seagate"},
	{regexp.MustCompile(`(?i)^DL2400`), "Seagate"},
	{regexp.MustCompile(`(?i)HGST`), "HGST"},
	{regexp.MustCompile(`(?i)^HU[HS]`), "HGST"},
	{regexp.MustCompile(`(?i)MICRON`), "Micron"},
	{regexp.MustCompile(`(?i)MTFDD`), "Micron"},
	{regexp.MustCompile(`(?i)SANDISK`), "SanDisk"},
	{regexp.MustCompile(`(?i)SAMSUNG`), "Samsung"},
	{regexp.MustCompile(`(?i)^MZ[-7]`), "Samsung"},
	{regexp.MustCompile(`(?i)HITACHI`), "Hitachi"},
	{regexp.MustCompile(`(?i)^M[BKM][0-9]{3}`), "HPE"},
}

// FindVendor resolves a vendor name from the model number and model family,
// since ATA and NVMe devices rarely carry an explicit vendor field.
func FindVendor(model, family string) string {
	for _, entry := range vendorPatterns {
		if entry.pattern.MatchString(model) || entry.pattern.MatchString(family) {
			return entry.vendor
		}
	}
	return ""
}

// stripVendor removes a resolved vendor prefix from a model number so the
// model column does not repeat the brand.
func stripVendor(model, vendor string) string {
	if vendor == "" {
		return model
	}
	trimmed := strings.TrimSpace(strings.TrimPrefix(model, vendor))
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, strings.ToUpper(vendor)))
	if trimmed == "" {
		return model
	}
	return trimmed
}

var rotationMedia = map[int64]string{
	0:     "SSD",
	5400:  "HDD",
	5700:  "HDD",
	7200:  "HDD",
	10000: "HDD",
	10500: "HDD",
	15000: "HDD",
	15030: "HDD",
}

// mediaType derives HDD/SSD from the rotation rate, defaulting by protocol
// when the device does not report one.
func mediaType(protocol Protocol, rate *int64) string {
	if rate != nil {
		if media, ok := rotationMedia[*rate]; ok {
			return media
		}
	}
	switch protocol {
	case ProtocolNVMe:
		return "SSD"
	case ProtocolATA, ProtocolSCSI:
		return "HDD"
	}
	return "Unknown"
}

// IdentityFromOutput builds the device identity from a full telemetry read.
func IdentityFromOutput(path string, protocol Protocol, out *smartctl.Output) Identity {
	id := Identity{
		Path:     path,
		Protocol: protocol,
	}
	if out == nil {
		return id
	}

	switch protocol {
	case ProtocolSCSI:
		id.Vendor = out.SCSIVendor
		id.Model = firstNonEmpty(out.SCSIModelName, out.ModelName)
		id.Firmware = firstNonEmpty(out.SCSIRevision, out.FirmwareVersion)
	default:
		id.Vendor = FindVendor(out.ModelName, out.ModelFamily)
		id.Model = stripVendor(out.ModelName, id.Vendor)
		id.Firmware = out.FirmwareVersion
	}
	id.Serial = out.SerialNumber
	id.MediaType = mediaType(protocol, out.RotationRate)
	if out.UserCapacity != nil {
		id.CapacityBytes = out.UserCapacity.Bytes
	} else if out.NVMeTotalCapacity > 0 {
		id.CapacityBytes = out.NVMeTotalCapacity
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
