package tour

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

// Store is the persistence the handlers need.
type Store interface {
	Create(ctx context.Context, in Input) (*Tour, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Tour, error)
	List(ctx context.Context, opts ListOptions) ([]*Tour, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type TourData struct {
	Tour *Tour `json:"tour"`
}

type TourResponse struct {
	Status string   `json:"status"`
	Data   TourData `json:"data"`
}

type ToursData struct {
	Tours []*Tour `json:"tours"`
}

type ToursResponse struct {
	Status  string    `json:"status"`
	Results int       `json:"results"`
	Data    ToursData `json:"data"`
}

// List returns tours
// @Summary      List tours
// @Tags         tours
// @Produce      json
// @Param        difficulty query string false "easy, medium or difficult"
// @Param        max_price  query int    false "Maximum price in cents"
// @Param        sort       query string false "Field to sort by, prefix with - for descending"
// @Param        limit      query int    false "Page size (max 100)"
// @Param        offset     query int    false "Offset"
// @Success      200 {object} ToursResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid query"
// @Router       /api/v1/tours [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	tours, err := h.store.List(r.Context(), opts)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, ToursResponse{
		Status:  "success",
		Results: len(tours),
		Data:    ToursData{Tours: tours},
	}, http.StatusOK)
}

// Get returns one tour
// @Summary      Get tour
// @Tags         tours
// @Produce      json
// @Param        id path string true "Tour ID"
// @Success      200 {object} TourResponse
// @Failure      404 {object} httputil.ErrorResponse "Tour not found"
// @Router       /api/v1/tours/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	t, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, TourResponse{Status: "success", Data: TourData{Tour: t}}, http.StatusOK)
}

// Create adds a tour
// @Summary      Create tour
// @Tags         tours
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Tour"
// @Success      201 {object} TourResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Not logged in"
// @Failure      403 {object} httputil.ErrorResponse "Admins and lead guides only"
// @Router       /api/v1/tours [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	t, err := h.store.Create(r.Context(), in)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("tour created", "tour_id", t.ID.String())
	httputil.RespondJSON(w, TourResponse{Status: "success", Data: TourData{Tour: t}}, http.StatusCreated)
}

// Update changes a tour
// @Summary      Update tour
// @Tags         tours
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "Tour ID"
// @Param        request body Input  true "Fields to change"
// @Success      200 {object} TourResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "Tour not found"
// @Router       /api/v1/tours/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	var in Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	t, err := h.store.Update(r.Context(), id, in)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, TourResponse{Status: "success", Data: TourData{Tour: t}}, http.StatusOK)
}

// Delete removes a tour
// @Summary      Delete tour
// @Tags         tours
// @Security     BearerAuth
// @Param        id path string true "Tour ID"
// @Success      204
// @Failure      404 {object} httputil.ErrorResponse "Tour not found"
// @Router       /api/v1/tours/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("tour deleted", "tour_id", id.String())
	httputil.RespondNoContent(w)
}

func parseListOptions(q url.Values) (ListOptions, error) {
	var opts ListOptions
	var err error

	if opts.Limit, err = httputil.IntQuery(q, "limit"); err != nil {
		return opts, err
	}
	if opts.Offset, err = httputil.IntQuery(q, "offset"); err != nil {
		return opts, err
	}
	if v := q.Get("difficulty"); v != "" {
		d := Difficulty(v)
		if !d.Valid() {
			return opts, invalid("difficulty is either: easy, medium, difficult")
		}
		opts.Difficulty = &d
	}
	if v := q.Get("max_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil || price < 0 {
			return opts, invalid("max_price must be a non-negative integer")
		}
		opts.MaxPriceCents = &price
	}
	opts.Sort = q.Get("sort")
	if _, err := opts.OrderExpr(); err != nil {
		return opts, err
	}
	return opts, nil
}
