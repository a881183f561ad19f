// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"regexp"
	"strconv"
)

// Some vendors render attribute 194 as a composite like "30 (Min/Max 25/40)"
// or "30 (Min/Max 25/40 #123)". The leading integer is the current reading.
var compositeTempRe = regexp.MustCompile(`^\s*(\d+)(?:\s*\(\s*Min/Max\s+(\d+)/(\d+)[^)]*\))?`)

// parseCompositeTemperature extracts current, min and max readings from a
// raw temperature string. Any component the string does not carry comes back
// nil. A string that does not start with an integer yields all nils.
func parseCompositeTemperature(s string) (cur, min, max *int64) {
	m := compositeTempRe.FindStringSubmatch(s)
	if m == nil {
		return nil, nil, nil
	}
	if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
		cur = &v
	}
	if m[2] != "" {
		if v, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			min = &v
		}
	}
	if m[3] != "" {
		if v, err := strconv.ParseInt(m[3], 10, 64); err == nil {
			max = &v
		}
	}
	return cur, min, max
}
