// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Format is an output rendering for a report.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatXML  Format = "xml"
	FormatText Format = "txt"
)

// headers is the flat column set shared by the tabular renderings.
func headers() []string {
	return []string{
		"path", "protocol", "vendor", "model", "serial", "firmware",
		"media_type", "capacity_bytes", "status", "failure_reason",
		"flag_reason", "workload_tb_per_year", "power_on_hours",
		"pending_sectors", "reallocated_sectors", "media_errors",
		"percent_used", "available_spare_pct", "current_temperature",
		"error",
	}
}

// record flattens one entry into the headers() column order.
func record(e Entry) []string {
	return []string{
		e.Identity.Path,
		string(e.Identity.Protocol),
		e.Identity.Vendor,
		e.Identity.Model,
		e.Identity.Serial,
		e.Identity.Firmware,
		e.Identity.MediaType,
		fmt.Sprintf("%d", e.Identity.CapacityBytes),
		string(e.Result.Status),
		string(e.Result.FailureReason),
		string(e.Result.FlagReason),
		formatFloat(e.Result.WorkloadTBPerYear),
		formatInt(e.Attributes.PowerOnHours),
		formatInt(e.Attributes.PendingSectors),
		formatInt(e.Attributes.ReallocatedSectors),
		formatInt(e.Attributes.MediaErrors),
		formatInt(e.Attributes.PercentUsed),
		formatInt(e.Attributes.AvailableSparePct),
		formatInt(e.Attributes.CurrentTemperature),
		e.Error,
	}
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

// WriteCSV renders the report as one CSV table.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers()); err != nil {
		return err
	}
	for _, entry := range r.Entries {
		if err := cw.Write(record(entry)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON renders the full structured report.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// xmlEntry mirrors the tabular columns so the XML rendering stays flat.
type xmlEntry struct {
	XMLName xml.Name `xml:"device"`
	Fields  []xmlField
}

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlReport struct {
	XMLName     xml.Name   `xml:"report"`
	ID          string     `xml:"id,attr"`
	Node        string     `xml:"node,attr"`
	GeneratedAt string     `xml:"generated_at,attr"`
	Devices     []xmlEntry `xml:"device"`
}

// WriteXML renders the report as a flat XML document.
func (r Report) WriteXML(w io.Writer) error {
	doc := xmlReport{
		ID:          r.ID,
		Node:        r.Node,
		GeneratedAt: r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	cols := headers()
	for _, entry := range r.Entries {
		var xe xmlEntry
		for i, value := range record(entry) {
			xe.Fields = append(xe.Fields, xmlField{
				XMLName: xml.Name{Local: cols[i]},
				Value:   value,
			})
		}
		doc.Devices = append(doc.Devices, xe)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Drive Health Report {{.ID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
tr.pass td.status { color: #070; }
tr.flagged td.status { color: #a60; }
tr.fail td.status { color: #a00; }
tr.error td.status { color: #777; }
</style>
</head>
<body>
<h1>Drive Health Report</h1>
<p>Node {{.Node}}, generated {{.GeneratedAt}}</p>
<table>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr class="{{.Status}}">{{range .Cells}}<td class="{{.Class}}">{{.Value}}</td>{{end}}</tr>
{{end}}</table>
</body>
</html>
`))

type htmlCell struct {
	Class string
	Value string
}

type htmlRow struct {
	Status string
	Cells  []htmlCell
}

// WriteHTML renders a standalone HTML page with one row per device.
func (r Report) WriteHTML(w io.Writer) error {
	cols := headers()
	data := struct {
		ID          string
		Node        string
		GeneratedAt string
		Headers     []string
		Rows        []htmlRow
	}{
		ID:          r.ID,
		Node:        r.Node,
		GeneratedAt: r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"),
		Headers:     cols,
	}
	for _, entry := range r.Entries {
		row := htmlRow{Status: string(entry.Result.Status)}
		for i, value := range record(entry) {
			row.Cells = append(row.Cells, htmlCell{Class: cols[i], Value: value})
		}
		data.Rows = append(data.Rows, row)
	}
	return htmlTemplate.Execute(w, data)
}

// WriteText renders a human-readable summary, one block per device.
func (r Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Drive Health Report %s\nNode: %s\nGenerated: %s\nDevices: %d (%d passed, %d failed, %d errors)\n",
		r.ID, r.Node, r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"),
		len(r.Entries), r.Passed(), r.Failed(), r.Errored()); err != nil {
		return err
	}
	cols := headers()
	for _, entry := range r.Entries {
		if _, err := fmt.Fprintf(w, "\n%s\n", entry.Identity.Path); err != nil {
			return err
		}
		for i, value := range record(entry) {
			if value == "" || cols[i] == "path" {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %-22s %s\n", cols[i], value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write renders the report in one format.
func (r Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return r.WriteCSV(w)
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatHTML:
		return r.WriteHTML(w)
	case FormatXML:
		return r.WriteXML(w)
	case FormatText:
		return r.WriteText(w)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFilename(s string) string {
	s = unsafeFilenameRe.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// filename builds the per-device log name from model and serial.
func filename(e Entry, format Format) string {
	model := sanitizeFilename(e.Identity.Model)
	serial := sanitizeFilename(e.Identity.Serial)
	return fmt.Sprintf("%s-%s.%s", model, serial, format)
}

// WriteFiles writes the report to dir, one file per requested format. With
// perDevice set, each device additionally gets its own single-entry file
// named after its model and serial.
func (r Report) WriteFiles(dir string, formats []Format, perDevice bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory %s: %w", dir, err)
	}

	for _, format := range formats {
		path := filepath.Join(dir, fmt.Sprintf("report-%s.%s", r.ID, format))
		if err := writeFile(path, r, format); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("report written")

		if !perDevice {
			continue
		}
		for _, entry := range r.Entries {
			single := r
			single.Entries = []Entry{entry}
			devicePath := filepath.Join(dir, filename(entry, format))
			if err := writeFile(devicePath, single, format); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFile(path string, r Report, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", path, err)
	}
	if err := r.Write(f, format); err != nil {
		f.Close()
		return fmt.Errorf("writing report file %s: %w", path, err)
	}
	return f.Close()
}

// ParseFormats validates a list of format names.
func ParseFormats(names []string) ([]Format, error) {
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		switch f := Format(strings.ToLower(name)); f {
		case FormatCSV, FormatJSON, FormatHTML, FormatXML, FormatText:
			formats = append(formats, f)
		default:
			return nil, fmt.Errorf("unsupported report format %q", name)
		}
	}
	return formats, nil
}
