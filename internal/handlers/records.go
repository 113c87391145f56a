package handlers

import (
	"net/http"

	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/workshop"
)

// RecordsHandler serves the client and vehicle endpoints.
type RecordsHandler struct {
	shop *workshop.Workshop
}

func NewRecordsHandler(shop *workshop.Workshop) *RecordsHandler {
	return &RecordsHandler{shop: shop}
}

func (h *RecordsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.shop.ListClients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *RecordsHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in models.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.shop.CreateClient(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *RecordsHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	view, err := h.shop.GetClient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RecordsHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var in models.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.shop.UpdateClient(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *RecordsHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.shop.ListVehicles(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *RecordsHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.shop.CreateVehicle(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *RecordsHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	view, err := h.shop.GetVehicle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RecordsHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.shop.UpdateVehicle(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ReassignOwner handles PUT /api/vehicles/{id}/owner.
func (h *RecordsHandler) ReassignOwner(w http.ResponseWriter, r *http.Request) {
	var in models.OwnerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.shop.ReassignOwner(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *RecordsHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.DeleteVehicle(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
