// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package report assembles graded scan results and renders them to the
// supported output formats.
package report

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/host"

	"github.com/circulardrives/cdi-grading-tool/pkg/devicescan"
	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
	"github.com/circulardrives/cdi-grading-tool/pkg/normalize"
)

// Entry is one graded device. Error carries the probe failure message for
// devices that produced no telemetry.
type Entry struct {
	Identity   devicescan.Identity         `json:"identity"`
	Attributes grading.CanonicalAttributes `json:"attributes"`
	Result     grading.GradeResult         `json:"result"`
	Error      string                      `json:"error,omitempty"`
}

// Report is one complete grading run over a node.
type Report struct {
	ID          string    `json:"id"`
	Node        string    `json:"node"`
	GeneratedAt time.Time `json:"generated_at"`
	Entries     []Entry   `json:"entries"`
}

// Build normalizes and grades a batch of scan outcomes. Outcomes that
// carry a probe error become data-read-error entries; every outcome yields
// exactly one entry, in input order.
func Build(outcomes []devicescan.Outcome, policy grading.ThresholdPolicy) Report {
	report := Report{
		ID:          uuid.New().String(),
		Node:        nodeName(),
		GeneratedAt: time.Now().UTC(),
		Entries:     make([]Entry, 0, len(outcomes)),
	}

	for _, outcome := range outcomes {
		entry := Entry{Identity: outcome.Identity}
		if outcome.Failed() {
			entry.Error = outcome.Err.Error()
			entry.Attributes = grading.CanonicalAttributes{Protocol: outcome.Identity.Protocol}
			entry.Result = grading.GradeResult{
				Status:        grading.StatusError,
				FailureReason: grading.ReasonDataReadError,
			}
		} else {
			entry.Attributes = normalize.Dispatch(outcome.Identity.Protocol, outcome.Raw)
			entry.Result = grading.Grade(entry.Attributes, policy)
		}
		report.Entries = append(report.Entries, entry)
	}
	return report
}

// Passed counts entries with a passing grade, flagged included.
func (r Report) Passed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Result.IsPassing() {
			n++
		}
	}
	return n
}

// Failed counts entries that failed grading, read errors excluded.
func (r Report) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Result.Status == grading.StatusFail {
			n++
		}
	}
	return n
}

// Errored counts entries that produced no usable telemetry.
func (r Report) Errored() int {
	n := 0
	for _, e := range r.Entries {
		if e.Result.Status == grading.StatusError {
			n++
		}
	}
	return n
}

func nodeName() string {
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	name, err := os.Hostname()
	if err != nil {
		log.Warn().Err(err).Msg("could not determine hostname")
		return "unknown"
	}
	return name
}
