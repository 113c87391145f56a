// Package invoice lays out and renders the printable service invoice.
//
// Build produces a Document, a page-positioned list of blocks, from a service
// detail. Render draws a Document to PDF. Keeping the layout separate from the
// drawing lets the layout be tested without parsing PDF output.
package invoice

import (
	"fmt"
	"strings"

	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/rules"
)

// Page geometry in millimeters (A4 portrait).
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	MarginLeft   = 20.0
	MarginTop    = 20.0
	FooterHeight = 25.0

	// NotesColumns is the character width notes are wrapped to.
	NotesColumns = 90

	lineHeight = 7.0
)

// Role tags what a block represents.
type Role string

const (
	RoleHeader       Role = "header"
	RoleSubheader    Role = "subheader"
	RoleSectionTitle Role = "section-title"
	RoleField        Role = "field"
	RoleServiceItem  Role = "service-item"
	RoleOilWarning   Role = "oil-warning"
	RoleNotes        Role = "notes"
	RoleTotal        Role = "total"
	RoleFooter       Role = "footer"
)

// Font selects a core PDF font.
type Font struct {
	Family string
	Style  string // "", "B", "I" or "BI"
	Size   float64
}

// Block is one line or box of text at a fixed page position.
type Block struct {
	Page  int // 1-based
	X, Y  float64
	W, H  float64
	Role  Role
	Text  string
	Font  Font
	Color config.RGB
	Fill  *config.RGB
	Align string // "L", "C" or "R"
}

// Document is a laid-out invoice.
type Document struct {
	Title  string
	Pages  int
	Blocks []Block
}

// ByRole returns the blocks with the given role in layout order.
func (d *Document) ByRole(role Role) []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.Role == role {
			out = append(out, b)
		}
	}
	return out
}

type layout struct {
	doc      *Document
	branding config.Branding
	page     int
	y        float64
}

func (l *layout) newPage() {
	l.page++
	l.doc.Pages = l.page
	l.y = MarginTop
}

// reserve moves to a new page when h would run into the footer area.
func (l *layout) reserve(h float64) {
	if l.y+h > PageHeight-FooterHeight {
		l.newPage()
	}
}

func (l *layout) add(b Block) {
	b.Page = l.page
	l.doc.Blocks = append(l.doc.Blocks, b)
}

func (l *layout) line(role Role, text string, font Font, indent float64) {
	l.reserve(lineHeight)
	l.add(Block{
		X: MarginLeft + indent, Y: l.y, W: PageWidth - 2*MarginLeft - indent, H: lineHeight,
		Role: role, Text: text, Font: font, Color: l.branding.Colors.Text, Align: "L",
	})
	l.y += lineHeight
}

func (l *layout) section(title string) {
	l.y += 4
	l.reserve(2 * lineHeight)
	l.add(Block{
		X: MarginLeft, Y: l.y, W: PageWidth - 2*MarginLeft, H: lineHeight + 1,
		Role: RoleSectionTitle, Text: title, Font: Font{"Helvetica", "B", 13},
		Color: l.branding.Colors.Primary, Align: "L",
	})
	l.y += lineHeight + 2
}

var (
	fieldFont = Font{"Helvetica", "", 11}
	boldFont  = Font{"Helvetica", "B", 11}
)

// Build lays out the invoice for d.
func Build(d models.ServiceDetail, branding config.Branding) *Document {
	s, v, c := d.Service, d.Vehicle, d.Client
	doc := &Document{Title: fmt.Sprintf("Invoice %s %s", v.Plate, s.Date)}
	l := &layout{doc: doc, branding: branding}
	l.newPage()

	primary := branding.Colors.Primary
	l.add(Block{
		X: 0, Y: 0, W: PageWidth, H: 28,
		Role: RoleHeader, Text: branding.ShopName, Font: Font{"Helvetica", "B", 24},
		Color: config.RGB{255, 255, 255}, Fill: &primary, Align: "C",
	})
	l.add(Block{
		X: 0, Y: 28, W: PageWidth, H: 12,
		Role: RoleSubheader, Text: "Service invoice", Font: Font{"Helvetica", "", 12},
		Color: config.RGB{255, 255, 255}, Fill: &primary, Align: "C",
	})
	l.y = 45

	l.section("CLIENT")
	l.line(RoleField, "Name: "+orDash(c.Name), fieldFont, 0)
	l.line(RoleField, "Phone: "+orDash(c.Phone), fieldFont, 0)
	l.line(RoleField, "Email: "+orDash(c.Email), fieldFont, 0)

	l.section("VEHICLE")
	l.line(RoleField, "Plate: "+v.Plate, fieldFont, 0)
	l.line(RoleField, "Make: "+v.Make, fieldFont, 0)
	l.line(RoleField, "Model: "+v.Model, fieldFont, 0)
	if v.Year > 0 {
		l.line(RoleField, fmt.Sprintf("Year: %d", v.Year), fieldFont, 0)
	}

	l.section("SERVICE DETAILS")
	l.line(RoleField, "Date: "+rules.FormatDate(s.Date), fieldFont, 0)
	l.line(RoleField, "Odometer: "+rules.FormatKm(s.Odometer), fieldFont, 0)
	l.line(RoleField, "Mechanic: "+orDash(s.Mechanic), fieldFont, 0)
	l.y += 3
	l.line(RoleField, "Services performed:", boldFont, 0)
	for _, t := range s.ServiceTypes {
		l.line(RoleServiceItem, "• "+t, fieldFont, 5)
	}
	if s.OilType != "" {
		l.line(RoleField, "Oil type: "+string(s.OilType), boldFont, 5)
	}

	if km, ok := rules.NextOilChange(s); ok {
		l.y += 5
		l.reserve(15)
		highlight := branding.Colors.Highlight
		l.add(Block{
			X: MarginLeft - 2, Y: l.y, W: PageWidth - 2*MarginLeft + 4, H: 15,
			Role: RoleOilWarning, Text: "Next oil change: " + rules.FormatKm(km),
			Font: Font{"Helvetica", "B", 12}, Color: branding.Colors.Warning, Fill: &highlight, Align: "C",
		})
		l.y += 15
	}

	if s.Notes != "" {
		l.y += 5
		l.line(RoleField, "Notes:", boldFont, 0)
		for _, text := range Wrap(s.Notes, NotesColumns) {
			l.line(RoleNotes, text, fieldFont, 0)
		}
	}

	l.y += 10
	l.reserve(18)
	l.add(Block{
		X: 0, Y: l.y, W: PageWidth, H: 18,
		Role: RoleTotal, Text: "TOTAL: " + rules.FormatAmount(s.Cost),
		Font: Font{"Helvetica", "B", 16}, Color: config.RGB{255, 255, 255}, Fill: &primary, Align: "C",
	})

	footerY := PageHeight - FooterHeight + 8
	l.add(Block{
		X: 0, Y: footerY, W: PageWidth, H: 6,
		Role: RoleFooter, Text: "Thank you for trusting " + branding.ShopName,
		Font: Font{"Helvetica", "", 10}, Color: branding.Colors.Muted, Align: "C",
	})
	if contact := branding.ContactLine(); contact != "" {
		l.add(Block{
			X: 0, Y: footerY + 6, W: PageWidth, H: 6,
			Role: RoleFooter, Text: contact,
			Font: Font{"Helvetica", "", 10}, Color: branding.Colors.Muted, Align: "C",
		})
	}
	return doc
}

// Wrap breaks text into lines of at most width characters, splitting on
// whitespace. Words longer than width are cut. Explicit line breaks are kept.
// A width below 1 is treated as 1.
func Wrap(text string, width int) []string {
	width = max(width, 1)
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur []rune
		for _, w := range words {
			word := []rune(w)
			for len(word) > width {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(word[:width]))
				word = word[width:]
			}
			switch {
			case len(cur) == 0:
				cur = word
			case len(cur)+1+len(word) <= width:
				cur = append(append(cur, ' '), word...)
			default:
				lines = append(lines, string(cur))
				cur = word
			}
		}
		if len(cur) > 0 {
			lines = append(lines, string(cur))
		}
	}
	return lines
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
