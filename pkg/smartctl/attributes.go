// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import "strings"

// Lookup scans the attribute table once and returns the entry matching the
// numeric ID, falling back to a case-insensitive name match only when no ID
// match exists. Returns nil when the table is absent or nothing matches;
// callers treat nil as "not reported", never as zero.
func (t *ATAAttributes) Lookup(id int64, fallbackName string) *ATAAttribute {
	if t == nil {
		return nil
	}
	var byName *ATAAttribute
	for i := range t.Table {
		attr := &t.Table[i]
		if attr.ID == id {
			return attr
		}
		if byName == nil && fallbackName != "" && strings.EqualFold(attr.Name, fallbackName) {
			byName = attr
		}
	}
	return byName
}

// RawValue returns the raw counter of the matched attribute, or nil.
func (t *ATAAttributes) RawValue(id int64, fallbackName string) *int64 {
	attr := t.Lookup(id, fallbackName)
	if attr == nil {
		return nil
	}
	v := attr.Raw.Value
	return &v
}

// NormalizedValue returns the vendor-normalized value of the matched
// attribute, or nil.
func (t *ATAAttributes) NormalizedValue(id int64, fallbackName string) *int64 {
	attr := t.Lookup(id, fallbackName)
	if attr == nil {
		return nil
	}
	v := attr.Value
	return &v
}

// ThresholdValue returns the vendor threshold of the matched attribute, or nil.
func (t *ATAAttributes) ThresholdValue(id int64, fallbackName string) *int64 {
	attr := t.Lookup(id, fallbackName)
	if attr == nil {
		return nil
	}
	v := attr.Thresh
	return &v
}
