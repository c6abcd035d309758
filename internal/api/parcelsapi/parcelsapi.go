package parcelsapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/services/parcels"
	"github.com/go-chi/chi/v5"
)

type ParcelsAPI struct {
	svc *parcels.Service
}

func New(svc *parcels.Service) *ParcelsAPI {
	return &ParcelsAPI{svc: svc}
}

// Routes mounts all parcel endpoints on the given router.
func (a *ParcelsAPI) Routes(r chi.Router) {
	r.Post("/v1/parcels", a.createParcels)
	r.Get("/v1/parcels", a.getParcelsByIDs)
	r.Get("/v1/parcels/{id}/updates", a.listParcelUpdates)
	r.Post("/v1/parcels/{id}/refresh", a.refreshParcel)
	r.Get("/v1/parcels/{id}/route", a.getParcelRoute)
}

type createParcelsRequest struct {
	Items []models.ParcelCreateInput `json:"items"`
}

type parcelsResponse struct {
	Parcels []*models.Parcel `json:"parcels"`
}

type updatesResponse struct {
	Updates []*models.ParcelUpdate `json:"updates"`
}

type routeResponse struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (a *ParcelsAPI) createParcels(w http.ResponseWriter, r *http.Request) {
	var req createParcelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	ps, err := a.svc.CreateParcels(r.Context(), req.Items)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, parcelsResponse{Parcels: ps})
}

func (a *ParcelsAPI) getParcelsByIDs(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "ids query param is required")
		return
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ids must be a comma-separated list of numbers")
			return
		}
		ids = append(ids, id)
	}

	ps, err := a.svc.GetParcelsByIDs(r.Context(), ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, parcelsResponse{Parcels: ps})
}

func (a *ParcelsAPI) listParcelUpdates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	upds, err := a.svc.ListParcelUpdates(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updatesResponse{Updates: upds})
}

func (a *ParcelsAPI) refreshParcel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.svc.RefreshParcel(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"refreshed": true})
}

func (a *ParcelsAPI) getParcelRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	origin, destination, err := a.svc.GetParcelRoute(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{Origin: origin, Destination: destination})
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive number")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
