package workshop

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/db"
	"github.com/ukydev/garage-service/internal/invoice"
	"github.com/ukydev/garage-service/internal/mail"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/notify"
)

// Notification is a composed message plus, for WhatsApp, the deep link that
// opens it in the customer's chat.
type Notification struct {
	Message notify.Message `json:"message"`
	Link    string         `json:"link,omitempty"`
}

// Detail loads the service, its vehicle and the vehicle's owner. When the
// owner record is gone the vehicle's owner snapshot stands in for it.
func (w *Workshop) Detail(ctx context.Context, serviceID string) (models.ServiceDetail, error) {
	s, err := w.store.FindServiceByID(ctx, serviceID)
	if err != nil {
		return models.ServiceDetail{}, w.lookupErr("service", serviceID, err)
	}
	v, err := w.store.FindVehicleByID(ctx, s.VehicleID)
	if err != nil {
		return models.ServiceDetail{}, w.lookupErr("vehicle", s.VehicleID, err)
	}

	detail := models.ServiceDetail{Service: *s, Vehicle: *v, Client: snapshotClient(*v)}
	if !v.HasOwner() {
		return detail, nil
	}
	c, err := w.store.FindClientByID(ctx, v.ClientID)
	switch {
	case err == nil:
		detail.Client = *c
	case errors.Is(err, db.ErrNotFound):
		w.log.WithField("vehicle_id", v.ID).WithField("client_id", v.ClientID).
			Warn("Vehicle owner not found, using owner snapshot")
	default:
		return models.ServiceDetail{}, w.storageErr("find client", err)
	}
	return detail, nil
}

func snapshotClient(v models.Vehicle) models.Client {
	return models.Client{
		ID:    v.ClientID,
		Name:  v.OwnerName,
		Phone: v.OwnerPhone,
		Email: v.OwnerEmail,
	}
}

// ComposeNotification renders the customer message for a service on channel.
func (w *Workshop) ComposeNotification(ctx context.Context, serviceID, channel string) (Notification, error) {
	ch, err := notify.ParseChannel(channel)
	if err != nil {
		return Notification{}, err
	}
	detail, err := w.Detail(ctx, serviceID)
	if err != nil {
		return Notification{}, err
	}
	msg, err := w.composer.Compose(ch, detail)
	if err != nil {
		return Notification{}, err
	}

	n := Notification{Message: msg}
	if ch == notify.ChannelWhatsApp {
		n.Link = notify.WhatsAppLink(msg, w.branding.CountryCode)
	}
	return n, nil
}

// Invoice renders the PDF invoice for a service.
func (w *Workshop) Invoice(ctx context.Context, serviceID string) (invoice.Invoice, error) {
	detail, err := w.Detail(ctx, serviceID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	return w.generateInvoice(detail)
}

func (w *Workshop) generateInvoice(detail models.ServiceDetail) (invoice.Invoice, error) {
	inv, err := invoice.Generate(detail, w.branding)
	if err != nil {
		w.log.WithError(err).WithField("service_id", detail.Service.ID).Error("Failed to render invoice")
		return invoice.Invoice{}, err
	}
	return inv, nil
}

// NotifyService emails the completion notice with the invoice attached.
func (w *Workshop) NotifyService(ctx context.Context, serviceID string) (string, error) {
	detail, err := w.Detail(ctx, serviceID)
	if err != nil {
		return "", err
	}
	return w.SendEmail(ctx, detail)
}

// SendEmail composes the email for detail, renders its invoice and hands both
// to the mail transport in a single attempt. It returns the provider message id.
func (w *Workshop) SendEmail(ctx context.Context, detail models.ServiceDetail) (string, error) {
	msg, err := w.composer.ComposeEmail(detail)
	if err != nil {
		return "", err
	}
	inv, err := w.generateInvoice(detail)
	if err != nil {
		return "", err
	}

	id, err := w.mailer.Send(ctx, mail.Email{
		To:          msg.Destination,
		Subject:     msg.Subject,
		Text:        msg.Body,
		HTML:        msg.HTML,
		Attachments: []mail.Attachment{{Filename: inv.Filename, Content: inv.Bytes}},
	})
	if err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{
			"service_id": detail.Service.ID,
			"to":         msg.Destination,
		}).Error("Failed to send notification email")
		return "", apperr.NewDeliveryError(err)
	}

	w.log.WithFields(logrus.Fields{
		"service_id": detail.Service.ID,
		"plate":      strings.TrimSpace(detail.Vehicle.Plate),
		"message_id": id,
	}).Info("Notification email sent")
	return id, nil
}
