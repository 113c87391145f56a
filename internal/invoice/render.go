package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/models"
)

// Invoice is a rendered PDF and the filename it should be saved as.
type Invoice struct {
	Filename string
	Bytes    []byte
}

// Render draws doc as a PDF.
func Render(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("garage-service", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	page := 0
	for _, b := range doc.Blocks {
		for page < b.Page {
			pdf.AddPage()
			page++
		}
		pdf.SetFont(b.Font.Family, b.Font.Style, b.Font.Size)
		pdf.SetTextColor(b.Color[0], b.Color[1], b.Color[2])
		fill := b.Fill != nil
		if fill {
			pdf.SetFillColor(b.Fill[0], b.Fill[1], b.Fill[2])
		}
		pdf.SetXY(b.X, b.Y)
		pdf.CellFormat(b.W, b.H, tr(b.Text), "", 0, b.Align+"M", fill, 0, "")
	}
	for page < doc.Pages {
		pdf.AddPage()
		page++
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.NewRenderError(fmt.Errorf("pdf output: %w", err))
	}
	return buf.Bytes(), nil
}

// Generate builds and renders the invoice for d.
func Generate(d models.ServiceDetail, branding config.Branding) (Invoice, error) {
	data, err := Render(Build(d, branding))
	if err != nil {
		return Invoice{}, err
	}
	return Invoice{Filename: Filename(d), Bytes: data}, nil
}

// Filename returns "Invoice-<PLATE>-<date>.pdf" with whitespace removed from the plate.
func Filename(d models.ServiceDetail) string {
	plate := strings.Join(strings.Fields(d.Vehicle.Plate), "")
	if plate == "" {
		plate = "vehicle"
	}
	return fmt.Sprintf("Invoice-%s-%s.pdf", plate, d.Service.Date)
}
