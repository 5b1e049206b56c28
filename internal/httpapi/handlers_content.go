package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/auth"
	"github.com/Allliance/content-rating/internal/ratings"
)

// contentHandlers implements C5 (rate) and C7 (list/detail/create) over
// HTTP, translating the typed service results into the exact JSON shapes
// §6 specifies.
type contentHandlers struct {
	ingest *ratings.IngestService
	query  *ratings.QueryService
	store  *ratings.Store
}

// list handles GET /contents (§4.7).
func (h *contentHandlers) list(w http.ResponseWriter, r *http.Request) {
	sortBy, desc, page := listQuery(r)
	identity, _ := auth.FromContext(r.Context())

	result, err := h.query.List(r.Context(), ratings.ListParams{
		SortBy: mapSortField(sortBy),
		Desc:   desc,
		Page:   page,
		UserID: identity.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// detail handles GET /contents/{id} (§4.7).
func (h *contentHandlers) detail(w http.ResponseWriter, r *http.Request) {
	contentID, err := pathContentID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	identity, _ := auth.FromContext(r.Context())

	view, err := h.query.DetailView(r.Context(), contentID, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// create handles POST /contents/create, the external creation endpoint
// restored in §9's Supplemented features so C7 has content to list.
func (h *contentHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validationf("malformed request body"))
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	content, err := h.store.CreateContent(r.Context(), req.Title, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, content)
}

// rate handles POST /contents/rate, C5's single operation (§4.5).
func (h *contentHandlers) rate(w http.ResponseWriter, r *http.Request) {
	var req RateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validationf("malformed request body"))
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, err)
		return
	}
	if *req.Rating < 0 || *req.Rating > 5 {
		writeError(w, apierr.Validationf("rating must be an integer in [0,5]"))
		return
	}

	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, apierr.AuthFailuref("caller identity required"))
		return
	}

	result, err := h.ingest.SubmitRating(r.Context(), identity.UserID, req.ContentID, *req.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func mapSortField(sortBy string) ratings.SortField {
	switch sortBy {
	case "rating_count":
		return ratings.SortByCount
	case "rating_average":
		return ratings.SortByRating
	default:
		return ratings.SortByRecency
	}
}

func pathContentID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.NotFoundf("content %q not found", raw)
	}
	return id, nil
}
