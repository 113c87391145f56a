package handlers

import (
	"net/http"
	"strings"

	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/rules"
	"github.com/ukydev/garage-service/internal/workshop"
)

// ServiceResponse is a service plus its projected next oil change.
type ServiceResponse struct {
	models.Service
	NextOilChange *int `json:"next_oil_change_km,omitempty"`
}

func newServiceResponse(s models.Service) ServiceResponse {
	resp := ServiceResponse{Service: s}
	if km, ok := rules.NextOilChange(s); ok {
		resp.NextOilChange = &km
	}
	return resp
}

func newServiceResponses(services []models.Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, newServiceResponse(s))
	}
	return out
}

// ServicesHandler serves service records and the revenue dashboard.
type ServicesHandler struct {
	shop *workshop.Workshop
}

func NewServicesHandler(shop *workshop.Workshop) *ServicesHandler {
	return &ServicesHandler{shop: shop}
}

// splitList parses a comma-separated query value.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ListServices handles GET /api/services?start=&end=&types=a,b.
func (h *ServicesHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	services, err := h.shop.ListServices(r.Context(), workshop.ServiceFilter{
		Start: q.Get("start"),
		End:   q.Get("end"),
		Types: splitList(q.Get("types")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newServiceResponses(services))
}

func (h *ServicesHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var in models.ServiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	s, err := h.shop.CreateService(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newServiceResponse(s))
}

func (h *ServicesHandler) GetService(w http.ResponseWriter, r *http.Request) {
	s, err := h.shop.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newServiceResponse(s))
}

func (h *ServicesHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var in models.ServiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	s, err := h.shop.UpdateService(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newServiceResponse(s))
}

// CompleteService handles POST /api/services/{id}/complete.
func (h *ServicesHandler) CompleteService(w http.ResponseWriter, r *http.Request) {
	s, err := h.shop.CompleteService(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newServiceResponse(s))
}

func (h *ServicesHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.DeleteService(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/stats?period=day|week|month|custom&start=&end=&types=.
func (h *ServicesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dash, err := h.shop.Stats(r.Context(), workshop.StatsQuery{
		Period: q.Get("period"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
		Types:  splitList(q.Get("types")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":    dash.Stats,
		"services": newServiceResponses(dash.Services),
	})
}

// Catalog handles GET /api/catalog: the service types and oil types offered.
func (h *ServicesHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service_types": models.ServiceTypes,
		"oil_types":     models.OilTypes,
		"oil_intervals": rules.OilChangeInterval,
	})
}
