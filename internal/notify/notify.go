// Package notify renders the customer messages sent when a service is done.
// It only composes content; delivery belongs to the mail transport or the
// customer's WhatsApp client.
package notify

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/rules"
)

// Channel is the transport a message is composed for.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// ParseChannel accepts whatsapp or email.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelWhatsApp, ChannelEmail:
		return c, nil
	}
	return "", apperr.NewValidationError("unknown channel %q", s)
}

// Message is a rendered notification and the address it should go to.
type Message struct {
	Channel     Channel `json:"channel"`
	Destination string  `json:"destination"`
	Subject     string  `json:"subject,omitempty"`
	Body        string  `json:"body"`
	HTML        string  `json:"html,omitempty"`
}

// Composer renders notifications with the shop's branding.
type Composer struct {
	branding config.Branding
}

// NewComposer creates a composer for the given branding.
func NewComposer(branding config.Branding) *Composer {
	return &Composer{branding: branding}
}

// Compose dispatches to the renderer for ch.
func (c *Composer) Compose(ch Channel, d models.ServiceDetail) (Message, error) {
	switch ch {
	case ChannelWhatsApp:
		return c.ComposeWhatsApp(d)
	case ChannelEmail:
		return c.ComposeEmail(d)
	}
	return Message{}, apperr.NewValidationError("unknown channel %q", ch)
}

// ComposeWhatsApp renders the chat message. The client must have a phone.
func (c *Composer) ComposeWhatsApp(d models.ServiceDetail) (Message, error) {
	phone := strings.TrimSpace(d.Client.Phone)
	if phone == "" {
		return Message{}, apperr.NewMissingRecipientError("phone")
	}
	s, v := d.Service, d.Vehicle

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! 👋\n\n", d.Client.Name)
	fmt.Fprintf(&b, "✅ *Service completed at %s*\n\n", c.branding.ShopName)
	fmt.Fprintf(&b, "🚗 *Vehicle:* %s %s (%s)\n", v.Make, v.Model, v.Plate)
	fmt.Fprintf(&b, "📅 *Date:* %s\n", rules.FormatDate(s.Date))
	fmt.Fprintf(&b, "🔧 *Odometer:* %s\n\n", rules.FormatKm(s.Odometer))
	b.WriteString("*Services performed:*\n")
	for _, line := range serviceLines(s) {
		fmt.Fprintf(&b, "• %s\n", line)
	}
	if km, ok := rules.NextOilChange(s); ok {
		fmt.Fprintf(&b, "\n⚠️ *Next oil change:* %s\n", rules.FormatKm(km))
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, "\n📝 *Notes:* %s\n", s.Notes)
	}
	fmt.Fprintf(&b, "\n💰 *Total:* %s\n", rules.FormatAmount(s.Cost))
	b.WriteString("\nThank you for trusting us! 🙏")

	return Message{
		Channel:     ChannelWhatsApp,
		Destination: phone,
		Body:        b.String(),
	}, nil
}

// ComposeEmail renders the subject, a plain-text body and an HTML body. The
// client must have an email address.
func (c *Composer) ComposeEmail(d models.ServiceDetail) (Message, error) {
	to := strings.TrimSpace(d.Client.Email)
	if to == "" {
		return Message{}, apperr.NewMissingRecipientError("email")
	}
	s, v := d.Service, d.Vehicle
	lines := serviceLines(s)
	nextKm, due := rules.NextOilChange(s)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", d.Client.Name)
	b.WriteString("We are pleased to let you know that the service on your vehicle has been completed.\n\n")
	b.WriteString("VEHICLE:\n")
	fmt.Fprintf(&b, "Make: %s\nModel: %s\nPlate: %s\n", v.Make, v.Model, v.Plate)
	if v.Year > 0 {
		fmt.Fprintf(&b, "Year: %d\n", v.Year)
	}
	b.WriteString("\nSERVICE DETAILS:\n")
	fmt.Fprintf(&b, "Date: %s\n", rules.FormatDate(s.Date))
	fmt.Fprintf(&b, "Odometer: %s\n", rules.FormatKm(s.Odometer))
	if s.Mechanic != "" {
		fmt.Fprintf(&b, "Mechanic: %s\n", s.Mechanic)
	}
	b.WriteString("\nSERVICES PERFORMED:\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "• %s\n", line)
	}
	if due {
		fmt.Fprintf(&b, "\nIMPORTANT: next oil change recommended at %s\n", rules.FormatKm(nextKm))
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", s.Notes)
	}
	fmt.Fprintf(&b, "\nTOTAL: %s\n", rules.FormatAmount(s.Cost))
	fmt.Fprintf(&b, "\nThank you for trusting %s.\n", c.branding.ShopName)
	b.WriteString("If you have any questions, do not hesitate to contact us.\n\n")
	fmt.Fprintf(&b, "Kind regards,\nThe %s team", c.branding.ShopName)

	html, err := c.renderHTML(d, lines, nextKm, due)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Channel:     ChannelEmail,
		Destination: to,
		Subject:     fmt.Sprintf("Service completed - %s - %s", v.Plate, c.branding.ShopName),
		Body:        b.String(),
		HTML:        html,
	}, nil
}

func (c *Composer) renderHTML(d models.ServiceDetail, lines []string, nextKm int, due bool) (string, error) {
	data := emailView{
		Branding: c.branding,
		Client:   d.Client,
		Vehicle:  d.Vehicle,
		Date:     rules.FormatDate(d.Service.Date),
		Odometer: rules.FormatKm(d.Service.Odometer),
		Lines:    lines,
		Notes:    d.Service.Notes,
		Total:    rules.FormatAmount(d.Service.Cost),
	}
	if due {
		data.NextOilChange = rules.FormatKm(nextKm)
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", apperr.NewRenderError(err)
	}
	return buf.String(), nil
}

// serviceLines lists the performed services, annotating the oil change with
// the oil type used.
func serviceLines(s models.Service) []string {
	lines := make([]string, 0, len(s.ServiceTypes))
	for _, t := range s.ServiceTypes {
		if t == models.ServiceTypeOilChange && s.OilType != "" {
			t = fmt.Sprintf("%s (%s)", t, s.OilType)
		}
		lines = append(lines, t)
	}
	return lines
}

// WhatsAppLink builds a wa.me deep link that opens a chat prefilled with msg.
// The destination is reduced to digits and its trunk zeros dropped. The
// country code is prepended unless the number already carries it.
func WhatsAppLink(msg Message, countryCode string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, msg.Destination)
	if countryCode != "" {
		digits = strings.TrimLeft(digits, "0")
		if !strings.HasPrefix(digits, countryCode) {
			digits = countryCode + digits
		}
	}
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(msg.Body), "+", "%20")
}
