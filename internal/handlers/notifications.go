package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/workshop"
)

// SendNotificationRequest is the body of POST /notifications/send. The
// records are sent as the caller has them; nothing is loaded from the store.
type SendNotificationRequest struct {
	Service *models.Service `json:"service"`
	Vehicle *models.Vehicle `json:"vehicle"`
	Client  *models.Client  `json:"cliente"`
}

// NotificationsHandler serves invoices and customer notifications.
type NotificationsHandler struct {
	shop *workshop.Workshop
	log  logrus.FieldLogger
}

func NewNotificationsHandler(shop *workshop.Workshop, log logrus.FieldLogger) *NotificationsHandler {
	return &NotificationsHandler{shop: shop, log: log}
}

// Invoice handles GET /api/services/{id}/invoice and streams the PDF.
func (h *NotificationsHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.shop.Invoice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(inv.Bytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(inv.Bytes)
}

// Notification handles GET /api/services/{id}/notification?channel=whatsapp|email.
func (h *NotificationsHandler) Notification(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = "whatsapp"
	}
	n, err := h.shop.ComposeNotification(r.Context(), r.PathValue("id"), channel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Notify handles POST /api/services/{id}/notify: the completion email with
// the invoice attached, for a stored service.
func (h *NotificationsHandler) Notify(w http.ResponseWriter, r *http.Request) {
	id, err := h.shop.NotifyService(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message_id": id})
}

// Send handles POST /notifications/send.
func (h *NotificationsHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SendNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"has_service": req.Service != nil,
		"has_vehicle": req.Vehicle != nil,
		"has_client":  req.Client != nil,
	}).Debug("Notification requested")

	if req.Service == nil || req.Vehicle == nil || req.Client == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "service, vehicle and cliente are required"})
		return
	}

	_, err := h.shop.SendEmail(r.Context(), models.ServiceDetail{
		Service: *req.Service,
		Vehicle: *req.Vehicle,
		Client:  *req.Client,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
