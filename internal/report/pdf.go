// Package report renders monthly ledger reports as PDF documents: a title,
// one line per transaction, then income/expense/net totals. Long months are
// paginated at a fixed number of itemized lines per page.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"finanzas/internal/core"
)

// LinesPerPage is the itemized-line budget of one A4 page at the fixed line
// pitch. When a month exceeds it the renderer starts a new page instead of
// running off the bottom.
const LinesPerPage = 34

const (
	marginLeft = 25.0 // mm
	titleY     = 20.0
	bodyTopY   = 32.0
	linePitch  = 7.0
)

// Document is a finished, downloadable report. Nothing is persisted; the
// bytes exist only as this value.
type Document struct {
	Bytes       []byte
	Filename    string
	ContentType string
	Pages       int
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Filename names the download for a given period: report_<month>_<year>.pdf.
func Filename(year, month int) string {
	return fmt.Sprintf("report_%d_%d.pdf", month, year)
}

// Render produces the report for one year+month over an already-fetched
// transaction set. Lines appear in the order given; totals must be computed
// over the same set. An empty set yields a valid single-page document with
// zero itemized lines and all-zero totals.
func (r *Renderer) Render(year, month int, txs []core.Transaction, totals core.Totals) (*Document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Finance Report - %d/%d", month, year), false)
	pdf.AddPage()
	pages := 1

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(marginLeft, titleY, fmt.Sprintf("Finance Report - %d/%d", month, year))

	pdf.SetFont("Helvetica", "", 11)
	y := bodyTopY
	linesOnPage := 0

	newLine := func() float64 {
		if linesOnPage == LinesPerPage {
			pdf.AddPage()
			pages++
			y = bodyTopY
			linesOnPage = 0
		}
		cur := y
		y += linePitch
		linesOnPage++
		return cur
	}

	for _, tx := range txs {
		line := fmt.Sprintf("%s: %s - %s (Date: %s)",
			titleCase(string(tx.Type)), tx.Category, tx.Amount.String(), tx.Date.String())
		pdf.Text(marginLeft, newLine(), line)
	}

	// Totals stay together: gap line plus three summary lines.
	if linesOnPage+4 > LinesPerPage {
		pdf.AddPage()
		pages++
		y = bodyTopY
		linesOnPage = 0
	}
	newLine() // gap between the list and the summary
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(marginLeft, newLine(), fmt.Sprintf("Total Income: %s", totals.Income()))
	pdf.Text(marginLeft, newLine(), fmt.Sprintf("Total Expense: %s", totals.Expense()))
	pdf.Text(marginLeft, newLine(), fmt.Sprintf("Net (Income - Expense): %s", totals.Net()))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return &Document{
		Bytes:       buf.Bytes(),
		Filename:    Filename(year, month),
		ContentType: "application/pdf",
		Pages:       pages,
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
