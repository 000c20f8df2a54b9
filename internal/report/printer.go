// Package report renders analysis results for people: plain text for the
// terminal, Markdown for notes, and HTML converted from the Markdown.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"edakit/domain/stats"
	"edakit/internal/errors"
	"edakit/internal/frequency"
	"edakit/internal/outliers"
	"edakit/internal/profiling"
)

// Format selects the output flavor
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts text, markdown (or md) and html
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.InvalidArgument(fmt.Sprintf("unknown report format %q", s))
}

// Printer writes results to w. HTML output is buffered as Markdown and
// converted on Flush.
type Printer struct {
	out    io.Writer
	w      io.Writer
	format Format
	md     *bytes.Buffer
}

// NewPrinter creates a printer for the given format
func NewPrinter(w io.Writer, format Format) *Printer {
	p := &Printer{out: w, w: w, format: format}
	if format == FormatHTML {
		p.md = &bytes.Buffer{}
		p.w = p.md
	}
	return p
}

func (p *Printer) isMarkdown() bool { return p.format != FormatText }

// Flush emits buffered HTML; it is a no-op for the other formats
func (p *Printer) Flush() error {
	if p.md == nil {
		return nil
	}
	if _, err := p.out.Write(ToHTML(p.md.Bytes())); err != nil {
		return errors.IOError("failed to write report", err)
	}
	p.md.Reset()
	return nil
}

// ToHTML converts Markdown to an HTML fragment
func ToHTML(md []byte) []byte {
	ps := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, ps, renderer)
}

// Result prints one test outcome: title, statistic, then the verdict with
// its p-value.
func (p *Printer) Result(r stats.TestResult) error {
	title := r.Test.Title()
	if len(r.Columns) > 0 {
		title += ": " + strings.Join(r.Columns, " vs ")
	}
	var err error
	if p.isMarkdown() {
		_, err = fmt.Fprintf(p.w, "### %s\n\n- statistic=%.3f\n- %s (p-value=%.3f, alpha=%g)\n\n",
			title, r.Statistic, r.Verdict(), r.PValue, r.Alpha)
	} else {
		_, err = fmt.Fprintf(p.w, "%s\nstatistic=%.3f\n%s (p-value=%.3f)\n\n",
			title, r.Statistic, r.Verdict(), r.PValue)
	}
	return wrapWrite(err)
}

// Results prints each result in order
func (p *Printer) Results(results []stats.TestResult) error {
	for _, r := range results {
		if err := p.Result(r); err != nil {
			return err
		}
	}
	return nil
}

// Battery prints the normality results followed by the variance result
func (p *Printer) Battery(b stats.Battery) error {
	if err := p.Results(b.Normality); err != nil {
		return err
	}
	return p.Result(b.Variance)
}

// Distribution prints a frequency table
func (p *Printer) Distribution(d *frequency.Distribution) error {
	header := []string{d.Source,
		frequency.ColFrequency,
		frequency.ColRelativeFrequency,
		frequency.ColCumulativeFrequency,
		frequency.ColCumulativeRelativeFrequency,
	}
	rows := make([][]string, d.Len())
	for i := range d.Index {
		rows[i] = []string{d.Index[i],
			formatNumber(d.Frequency[i]),
			formatNumber(d.Relative[i]),
			formatNumber(d.Cumulative[i]),
			formatNumber(d.CumulativeRelative[i]),
		}
	}
	return p.table(header, rows)
}

// Filtered prints the outlier fences and the kept values with their
// original positions.
func (p *Printer) Filtered(column string, inputLen int, f outliers.Filtered) error {
	b := f.Bounds
	_, err := fmt.Fprintf(p.w, "%s: Q1=%s Q3=%s IQR=%s bounds=[%s, %s] kept=%d removed=%d\n\n",
		column, formatNumber(b.Q1), formatNumber(b.Q3), formatNumber(b.IQR),
		formatNumber(b.Lower), formatNumber(b.Upper), len(f.Values), f.Removed(inputLen))
	if err != nil {
		return wrapWrite(err)
	}
	rows := make([][]string, len(f.Values))
	for i, v := range f.Values {
		rows[i] = []string{strconv.Itoa(f.Positions[i]), formatNumber(v)}
	}
	return p.table([]string{"position", column}, rows)
}

// Summary prints descriptive statistics of a column
func (p *Printer) Summary(column string, s profiling.Summary) error {
	modes := make([]string, len(s.Modes))
	for i, m := range s.Modes {
		modes[i] = formatNumber(m)
	}
	rows := [][]string{
		{"count", strconv.Itoa(s.Count)},
		{"missing", strconv.Itoa(s.Missing)},
		{"mean", formatNumber(s.Mean)},
		{"std", formatNumber(s.StdDev)},
		{"min", formatNumber(s.Min)},
		{"25%", formatNumber(s.Q1)},
		{"50%", formatNumber(s.Median)},
		{"75%", formatNumber(s.Q3)},
		{"max", formatNumber(s.Max)},
		{"mode", strings.Join(modes, ", ")},
		{"skewness", formatNumber(s.Skewness)},
		{"kurtosis", formatNumber(s.Kurtosis)},
	}
	return p.table([]string{"statistic", column}, rows)
}

// Tests lists the available tests
func (p *Printer) Tests(entries [][2]string) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e[0], e[1]}
	}
	return p.table([]string{"test", "description"}, rows)
}

func (p *Printer) table(header []string, rows [][]string) error {
	if p.isMarkdown() {
		var b strings.Builder
		b.WriteString("| " + strings.Join(header, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
		for _, row := range rows {
			b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		b.WriteString("\n")
		_, err := io.WriteString(p.w, b.String())
		return wrapWrite(err)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return wrapWrite(err)
	}
	_, err := fmt.Fprintln(p.w)
	return wrapWrite(err)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func wrapWrite(err error) error {
	if err != nil {
		return errors.IOError("failed to write report", err)
	}
	return nil
}
