// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package grading

import (
	"fmt"

	"github.com/spf13/viper"
)

// ThresholdPolicy is the one externally configurable surface of the engine.
// It is an immutable value injected at construction; the engine never reads
// thresholds from anywhere else.
type ThresholdPolicy struct {
	PendingSectorsMax      int64   `mapstructure:"pending_sectors_max" json:"pending_sectors_max"`
	ReallocatedSectorsMax  int64   `mapstructure:"reallocated_sectors_max" json:"reallocated_sectors_max"`
	UncorrectableErrorsMax int64   `mapstructure:"uncorrectable_errors_max" json:"uncorrectable_errors_max"`
	PercentUsedMax         int64   `mapstructure:"percent_used_max" json:"percent_used_max"`
	AvailableSpareMin      int64   `mapstructure:"available_spare_min" json:"available_spare_min"`
	WorkloadTBPerYearMax   float64 `mapstructure:"workload_tb_per_year_max" json:"workload_tb_per_year_max"`
	WarningTempMinutesMax  int64   `mapstructure:"warning_temp_minutes_max" json:"warning_temp_minutes_max"`
	CriticalTempMinutesMax int64   `mapstructure:"critical_temp_minutes_max" json:"critical_temp_minutes_max"`
}

// DefaultPolicy returns the CDI baseline thresholds.
func DefaultPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		PendingSectorsMax:      10,
		ReallocatedSectorsMax:  10,
		UncorrectableErrorsMax: 10,
		PercentUsedMax:         100,
		AvailableSpareMin:      97,
		WorkloadTBPerYearMax:   550,
		WarningTempMinutesMax:  60,
		CriticalTempMinutesMax: 0,
	}
}

// LoadPolicy reads a policy file (YAML/TOML/JSON, decided by extension) and
// overlays it on the defaults, so a partial file only overrides the keys it
// names under `thresholds`.
func LoadPolicy(path string) (ThresholdPolicy, error) {
	policy := DefaultPolicy()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return policy, fmt.Errorf("reading policy file %s: %w", path, err)
	}
	if err := v.UnmarshalKey("thresholds", &policy); err != nil {
		return policy, fmt.Errorf("decoding policy file %s: %w", path, err)
	}
	return policy, nil
}
