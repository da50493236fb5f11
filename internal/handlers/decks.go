package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eddie-kann/astrokiddo/internal/services"
	apperrors "github.com/eddie-kann/astrokiddo/pkg/errors"
	"github.com/eddie-kann/astrokiddo/pkg/response"
	"github.com/eddie-kann/astrokiddo/pkg/validator"
)

// DeckHandler exposes the deck cache over HTTP.
type DeckHandler struct {
	svc *services.DeckService
}

// NewDeckHandler constructs a deck handler.
func NewDeckHandler(svc *services.DeckService) *DeckHandler {
	return &DeckHandler{svc: svc}
}

type generateDeckRequest struct {
	Topic      string `json:"topic" validate:"required,min=2,max=200"`
	GradeLevel string `json:"gradeLevel" validate:"omitempty,max=32"`
	Locale     string `json:"locale" validate:"omitempty,max=16"`
}

// Generate returns the cached deck for the request, generating it on demand.
func (h *DeckHandler) Generate(c *gin.Context) {
	if h == nil || h.svc == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	var body generateDeckRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid deck request payload"))
		return
	}
	if err := validator.ValidateStruct(body); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	deck, err := h.svc.FindOrGenerate(requestContext(c), services.GenerateDeckRequest{
		Topic:      body.Topic,
		GradeLevel: body.GradeLevel,
		Locale:     body.Locale,
	})
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, deck)
}

// Get returns the merged view of one stored deck.
func (h *DeckHandler) Get(c *gin.Context) {
	if h == nil || h.svc == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	deck, err := h.svc.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, deck)
}

// List returns stored decks filtered by query parameters.
func (h *DeckHandler) List(c *gin.Context) {
	if h == nil || h.svc == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	opts := services.ListDecksOptions{
		TopicContains:      c.Query("topic"),
		GradeLevel:         c.Query("gradeLevel"),
		Locale:             c.Query("locale"),
		ProvenanceContains: c.Query("nasaSource"),
		Page:               parseIntQuery(c, "page", 0),
		PerPage:            parseIntQuery(c, "perPage", 0),
	}

	createdAfter, err := parseTimeQuery(c, "createdAfter")
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("createdAfter must be RFC 3339"))
		return
	}
	createdBefore, err := parseTimeQuery(c, "createdBefore")
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("createdBefore must be RFC 3339"))
		return
	}
	opts.CreatedAfter = createdAfter
	opts.CreatedBefore = createdBefore

	opts = opts.Normalized()
	decks, total, err := h.svc.ListDecks(requestContext(c), opts)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, decks, response.NewMeta(opts.Page, opts.PerPage, total))
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
