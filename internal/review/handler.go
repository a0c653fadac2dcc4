package review

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/auth"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

type Store interface {
	Create(ctx context.Context, userID uuid.UUID, in Input) (*Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	List(ctx context.Context, opts ListOptions) ([]*Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type ReviewData struct {
	Review *Review `json:"review"`
}

type ReviewResponse struct {
	Status string     `json:"status"`
	Data   ReviewData `json:"data"`
}

type ReviewsData struct {
	Reviews []*Review `json:"reviews"`
}

type ReviewsResponse struct {
	Status  string      `json:"status"`
	Results int         `json:"results"`
	Data    ReviewsData `json:"data"`
}

// List returns reviews
// @Summary      List reviews
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        tour_id query string false "Only reviews of this tour"
// @Param        limit   query int    false "Page size (max 100)"
// @Param        offset  query int    false "Offset"
// @Success      200 {object} ReviewsResponse
// @Failure      401 {object} httputil.ErrorResponse "Not logged in"
// @Router       /api/v1/reviews [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts ListOptions
	var err error

	if opts.Limit, err = httputil.IntQuery(q, "limit"); err != nil {
		httputil.RespondError(w, r, err)
		return
	}
	if opts.Offset, err = httputil.IntQuery(q, "offset"); err != nil {
		httputil.RespondError(w, r, err)
		return
	}
	if v := q.Get("tour_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondError(w, r, invalid("tour_id must be a valid id").Wrap(err))
			return
		}
		opts.TourID = &id
	}

	reviews, err := h.store.List(r.Context(), opts)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, ReviewsResponse{
		Status:  "success",
		Results: len(reviews),
		Data:    ReviewsData{Reviews: reviews},
	}, http.StatusOK)
}

// Create posts a review as the logged in user
// @Summary      Create review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Review"
// @Success      201 {object} ReviewResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or already reviewed"
// @Failure      403 {object} httputil.ErrorResponse "Only users can post reviews"
// @Failure      404 {object} httputil.ErrorResponse "Tour not found"
// @Router       /api/v1/reviews [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrMissingToken)
		return
	}

	var in Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	created, err := h.store.Create(r.Context(), identity.ID, in)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("review created",
		"review_id", created.ID.String(),
		"tour_id", created.TourID.String(),
	)
	httputil.RespondJSON(w, ReviewResponse{Status: "success", Data: ReviewData{Review: created}}, http.StatusCreated)
}

// Delete removes a review. Users may only delete their own; admins may
// delete any.
// @Summary      Delete review
// @Tags         reviews
// @Security     BearerAuth
// @Param        id path string true "Review ID"
// @Success      204
// @Failure      403 {object} httputil.ErrorResponse "Not the author"
// @Failure      404 {object} httputil.ErrorResponse "Review not found"
// @Router       /api/v1/reviews/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrMissingToken)
		return
	}

	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	existing, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}
	if existing.UserID != identity.ID && identity.Role != user.RoleAdmin {
		httputil.RespondError(w, r, auth.ErrForbidden)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondNoContent(w)
}
