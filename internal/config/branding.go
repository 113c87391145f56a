package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// RGB is a colour used by the printed invoice.
type RGB [3]int

// Branding is the shop identity printed on invoices and notifications.
type Branding struct {
	ShopName    string `toml:"shop_name"`
	Tagline     string `toml:"tagline"`
	Address     string `toml:"address"`
	Phone       string `toml:"phone"`
	Email       string `toml:"email"`
	CountryCode string `toml:"country_code"`

	Colors struct {
		Primary   RGB `toml:"primary"`
		Accent    RGB `toml:"accent"`
		Warning   RGB `toml:"warning"`
		Text      RGB `toml:"text"`
		Muted     RGB `toml:"muted"`
		Highlight RGB `toml:"highlight"`
	} `toml:"colors"`
}

// DefaultBranding is used when no branding file is configured.
func DefaultBranding() Branding {
	var b Branding
	b.ShopName = "Garage Service"
	b.Tagline = "Mechanical workshop"
	b.CountryCode = "598"
	b.Colors.Primary = RGB{30, 58, 138}
	b.Colors.Accent = RGB{37, 99, 235}
	b.Colors.Warning = RGB{217, 119, 6}
	b.Colors.Text = RGB{31, 41, 55}
	b.Colors.Muted = RGB{107, 114, 128}
	b.Colors.Highlight = RGB{254, 243, 199}
	return b
}

// LoadBranding reads a TOML branding profile. Keys missing from the file keep
// their default values.
func LoadBranding(path string) (Branding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Branding{}, fmt.Errorf("failed to read branding file: %w", err)
	}
	b := DefaultBranding()
	if err := toml.Unmarshal(data, &b); err != nil {
		return Branding{}, fmt.Errorf("failed to parse branding file %s: %w", path, err)
	}
	return b, nil
}

// ContactLine joins the non-empty contact details for footers.
func (b Branding) ContactLine() string {
	line := ""
	for _, part := range []string{b.Address, b.Phone, b.Email} {
		if part == "" {
			continue
		}
		if line != "" {
			line += " | "
		}
		line += part
	}
	return line
}
