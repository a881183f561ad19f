// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/circulardrives/cdi-grading-tool/pkg/grading"
)

// GradeEvent is the wire payload published per graded device.
type GradeEvent struct {
	ReportID   string            `json:"report_id"`
	NodeName   string            `json:"node_name"`
	Device     string            `json:"device"`
	Serial     string            `json:"serial"`
	Model      string            `json:"model"`
	EventType  string            `json:"event_type"`
	Severity   string            `json:"severity"`
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details"`
}

func eventSeverity(result grading.GradeResult) string {
	switch result.Status {
	case grading.StatusFail:
		return "critical"
	case grading.StatusFlagged, grading.StatusError:
		return "warning"
	default:
		return "info"
	}
}

func eventMessage(entry Entry) string {
	switch entry.Result.Status {
	case grading.StatusFail:
		return fmt.Sprintf("drive failed grading (%s)", entry.Result.FailureReason)
	case grading.StatusFlagged:
		return fmt.Sprintf("drive passed grading with a flag (%s)", entry.Result.FlagReason)
	case grading.StatusError:
		return "drive telemetry could not be read"
	default:
		return "drive passed grading"
	}
}

// convertToGradeEvent maps one report entry onto the event payload.
func convertToGradeEvent(r Report, entry Entry) GradeEvent {
	details := make(map[string]string)
	cols := headers()
	for i, value := range record(entry) {
		if value != "" {
			details[cols[i]] = value
		}
	}

	eventType := "grade"
	if entry.Result.Status == grading.StatusFail || entry.Result.Status == grading.StatusError {
		eventType = "grade_alert"
	}

	return GradeEvent{
		ReportID:  r.ID,
		NodeName:  r.Node,
		Device:    entry.Identity.Path,
		Serial:    entry.Identity.Serial,
		Model:     entry.Identity.Model,
		EventType: eventType,
		Severity:  eventSeverity(entry.Result),
		Status:    string(entry.Result.Status),
		Message:   eventMessage(entry),
		Details:   details,
	}
}

// PublishToNATS sends one event per entry on the given subject.
func (r Report) PublishToNATS(nc *nats.Conn, subject string) error {
	for _, entry := range r.Entries {
		event := convertToGradeEvent(r, entry)

		eventJSON, err := json.Marshal(event)
		if err != nil {
			return err
		}

		if err := nc.Publish(subject, eventJSON); err != nil {
			return err
		}
	}

	return nil
}
