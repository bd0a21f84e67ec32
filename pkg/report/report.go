// Package report writes evaluated truth tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/thomasrohde/ttbl/pkg/truthtable"
)

// Format names an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatMarkdown, FormatCSV, FormatJSON}

// DefaultWrapWidth is the label width at which table headers wrap.
const DefaultWrapWidth = 20

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatTable, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want table, markdown, csv or json)", s)
}

// Options configures Write.
type Options struct {
	Format    Format
	TrueMark  string
	FalseMark string
	// WrapWidth is the column width for wrapped headers in table format.
	WrapWidth int
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatTable
	}
	if o.TrueMark == "" {
		o.TrueMark = "T"
	}
	if o.FalseMark == "" {
		o.FalseMark = "F"
	}
	if o.WrapWidth <= 0 {
		o.WrapWidth = DefaultWrapWidth
	}
	return o
}

// Write renders t to w.
func Write(w io.Writer, t *truthtable.Table, opts Options) error {
	opts = opts.withDefaults()
	switch opts.Format {
	case FormatTable:
		return writeTable(w, t, opts, false)
	case FormatMarkdown:
		return writeTable(w, t, opts, true)
	case FormatCSV:
		return writeCSV(w, t, opts)
	case FormatJSON:
		return writeJSON(w, t)
	}
	return fmt.Errorf("unknown format %q", opts.Format)
}

func header(t *truthtable.Table) []string {
	h := make([]string, 0, len(t.Variables)+len(t.Labels))
	h = append(h, t.Variables...)
	if t.Labels != nil {
		return append(h, t.Labels...)
	}
	for i := range t.Outputs[0] {
		h = append(h, fmt.Sprintf("#%d", i))
	}
	return h
}

func records(t *truthtable.Table, opts Options) [][]string {
	mark := func(b bool) string {
		if b {
			return opts.TrueMark
		}
		return opts.FalseMark
	}

	out := make([][]string, len(t.Inputs))
	for r := range t.Inputs {
		rec := make([]string, 0, len(t.Inputs[r])+len(t.Outputs[r]))
		for _, v := range t.Inputs[r] {
			rec = append(rec, mark(v))
		}
		for _, v := range t.Outputs[r] {
			rec = append(rec, mark(v))
		}
		out[r] = rec
	}
	return out
}

func writeTable(w io.Writer, t *truthtable.Table, opts Options, markdown bool) error {
	h := header(t)
	if markdown {
		for i := range h {
			h[i] = strings.ReplaceAll(h[i], "|", `\|`)
		}
	}

	// options must be set before SetHeader, which wraps the header cells
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_CENTER)
	tw.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	if markdown {
		// markdown cells must stay on one line
		tw.SetAutoWrapText(false)
		tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		tw.SetCenterSeparator("|")
	} else {
		tw.SetAutoWrapText(true)
		tw.SetColWidth(opts.WrapWidth)
	}
	tw.SetHeader(h)
	tw.AppendBulk(records(t, opts))
	tw.Render()
	return nil
}

func writeCSV(w io.Writer, t *truthtable.Table, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(t)); err != nil {
		return err
	}
	if err := cw.WriteAll(records(t, opts)); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

type jsonRow struct {
	Inputs  []bool `json:"inputs"`
	Outputs []bool `json:"outputs"`
}

type jsonTable struct {
	Variables []string         `json:"variables"`
	Labels    []string         `json:"labels"`
	Order     string           `json:"order"`
	Rows      []jsonRow        `json:"rows"`
	Class     truthtable.Class `json:"class"`
	TrueRows  int              `json:"trueRows"`
}

func writeJSON(w io.Writer, t *truthtable.Table) error {
	doc := jsonTable{
		Variables: t.Variables,
		Labels:    t.Labels,
		Order:     t.Order.String(),
		Rows:      make([]jsonRow, len(t.Inputs)),
		Class:     t.Classify(),
		TrueRows:  t.TrueRows(),
	}
	if doc.Variables == nil {
		doc.Variables = []string{}
	}
	for r := range t.Inputs {
		doc.Rows[r] = jsonRow{Inputs: t.Inputs[r], Outputs: t.Outputs[r]}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Summary writes a one-line classification of t.
func Summary(w io.Writer, t *truthtable.Table) error {
	_, err := fmt.Fprintf(w, "%s: %d of %d rows true\n", t.Classify(), t.TrueRows(), len(t.Outputs))
	return err
}
