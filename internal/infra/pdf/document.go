package pdf

import (
	"errors"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	margin     = 40.0
	fontFamily = "Helvetica"
)

var ErrAlreadyClosed = errors.New("documento já finalizado")

// Document escreve o relatório de leads num A4 em pontos. O fpdf monta o arquivo
// inteiro em memória e só envia para out no Close; o export limita a quantidade de leads.
type Document struct {
	pdf    *fpdf.Fpdf
	out    io.Writer
	tr     func(string) string
	width  float64
	closed bool
}

func NewDocument(out io.Writer) *Document {
	p := fpdf.New("P", "pt", "A4", "")
	p.SetMargins(margin, margin, margin)
	p.SetAutoPageBreak(true, margin)
	p.AddPage()

	w, _ := p.GetPageSize()
	return &Document{
		pdf:   p,
		out:   out,
		tr:    p.UnicodeTranslatorFromDescriptor(""),
		width: w - 2*margin,
	}
}

func (d *Document) Title(text string) {
	d.pdf.SetFont(fontFamily, "B", 20)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.CellFormat(d.width, 24, d.tr(text), "", 1, "C", false, 0, "")
}

func (d *Document) Subtitle(text string) {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.SetTextColor(90, 90, 90)
	d.pdf.CellFormat(d.width, 14, d.tr(text), "", 1, "C", false, 0, "")
	d.pdf.Ln(16)
}

func (d *Document) Heading(text string) {
	d.pdf.SetFont(fontFamily, "B", 14)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.MultiCell(d.width, 18, d.tr(text), "", "L", false)
}

func (d *Document) Line(text string) {
	d.pdf.SetFont(fontFamily, "", 12)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.MultiCell(d.width, 15, d.tr(text), "", "L", false)
}

func (d *Document) Small(text string) {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.SetTextColor(110, 110, 110)
	d.pdf.MultiCell(d.width, 13, d.tr(text), "", "L", false)
}

func (d *Document) Gap(h float64) { d.pdf.Ln(h) }

func (d *Document) Rule() {
	y := d.pdf.GetY()
	d.pdf.SetDrawColor(200, 200, 200)
	d.pdf.Line(margin, y, margin+d.width, y)
}

func (d *Document) Y() float64 { return d.pdf.GetY() }

func (d *Document) AddPage() { d.pdf.AddPage() }

func (d *Document) Pages() int { return d.pdf.PageCount() }

// Close gera o PDF em out. Só pode ser chamado uma vez.
func (d *Document) Close() error {
	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true

	if err := d.pdf.Error(); err != nil {
		return err
	}
	return d.pdf.Output(d.out)
}
