package notify

import (
	"fmt"
	"html/template"

	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/models"
)

type emailView struct {
	Branding      config.Branding
	Client        models.Client
	Vehicle       models.Vehicle
	Date          string
	Odometer      string
	Lines         []string
	NextOilChange string
	Notes         string
	Total         string
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"rgb": func(c config.RGB) template.CSS {
		return template.CSS(fmt.Sprintf("rgb(%d, %d, %d)", c[0], c[1], c[2]))
	},
}).Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: {{rgb .Branding.Colors.Text}}; }
      .header { background-color: {{rgb .Branding.Colors.Primary}}; color: white; padding: 20px; text-align: center; }
      .content { padding: 20px; }
      .vehicle-info { background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
      .alert-box { background-color: {{rgb .Branding.Colors.Highlight}}; color: {{rgb .Branding.Colors.Warning}}; padding: 15px; border-radius: 5px; margin: 20px 0; font-weight: bold; }
      .footer { background-color: #f5f5f5; padding: 20px; text-align: center; margin-top: 30px; }
    </style>
  </head>
  <body>
    <div class="header"><h1>{{.Branding.ShopName}}</h1></div>
    <div class="content">
      <h2>Dear {{.Client.Name}},</h2>
      <p>Your vehicle <strong>{{.Vehicle.Make}} {{.Vehicle.Model}}</strong> (plate {{.Vehicle.Plate}}) is ready for pickup.</p>
      <p>Date: {{.Date}}<br>Odometer: {{.Odometer}}</p>
      <div class="vehicle-info">
        <h3>Services performed:</h3>
        <ul>{{range .Lines}}<li>{{.}}</li>{{end}}</ul>
      </div>
      {{- if .NextOilChange}}
      <div class="alert-box">IMPORTANT: next oil change recommended at {{.NextOilChange}}</div>
      {{- end}}
      {{- if .Notes}}
      <p><strong>Notes:</strong> {{.Notes}}</p>
      {{- end}}
      <p><strong>Total:</strong> {{.Total}}</p>
      <p>The detailed invoice is attached.</p>
    </div>
    <div class="footer">
      <p><strong>{{.Branding.ShopName}}</strong></p>
      {{- with .Branding.ContactLine}}<p>{{.}}</p>{{end}}
      <p>Thank you for trusting us</p>
    </div>
  </body>
</html>
`))
