package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eddie-kann/astrokiddo/internal/services"
	apperrors "github.com/eddie-kann/astrokiddo/pkg/errors"
	"github.com/eddie-kann/astrokiddo/pkg/response"
)

// ApodHandler serves astronomy picture of the day endpoints.
type ApodHandler struct {
	svc *services.ApodService
}

// NewApodHandler constructs an APOD handler.
func NewApodHandler(svc *services.ApodService) *ApodHandler {
	return &ApodHandler{svc: svc}
}

// Get returns the picture for the date query parameter (YYYY-MM-DD),
// defaulting to today. Responses are publicly cacheable for a day.
func (h *ApodHandler) Get(c *gin.Context) {
	if h == nil || h.svc == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	var date time.Time
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	apod, err := h.svc.GetOrCreate(requestContext(c), date)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	response.Success(c, http.StatusOK, apod)
}

// History returns stored pictures, newest date first.
func (h *ApodHandler) History(c *gin.Context) {
	if h == nil || h.svc == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	page := parseIntQuery(c, "page", 0)
	perPage := parseIntQuery(c, "size", 20)

	apods, total, err := h.svc.List(requestContext(c), page, perPage)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, apods, response.NewMeta(page, perPage, total))
}
