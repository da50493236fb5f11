package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eddie-kann/astrokiddo/internal/services"
	apperrors "github.com/eddie-kann/astrokiddo/pkg/errors"
	"github.com/eddie-kann/astrokiddo/pkg/response"
)

// TTSHandler serves narration audio for slides.
type TTSHandler struct {
	tts *services.TTSAudioService
}

// NewTTSHandler constructs the handler. A nil TTS service means audio is not
// configured for this deployment.
func NewTTSHandler(tts *services.TTSAudioService) *TTSHandler {
	return &TTSHandler{tts: tts}
}

type ttsRequest struct {
	Speaker string `json:"speaker"`
}

// SlideAudio returns the narration URL for a slide, synthesizing it first if
// no current audio is cached. The optional body selects the speaker.
func (h *TTSHandler) SlideAudio(c *gin.Context) {
	if h == nil || h.tts == nil {
		response.Error(c, apperrors.New("tts.disabled", "Audio synthesis is not configured", http.StatusNotImplemented))
		return
	}

	slideUUID := strings.TrimSpace(c.Param("slideId"))

	var body ttsRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, apperrors.NewBadRequest("invalid tts payload"))
			return
		}
	}

	url, err := h.tts.SlideAudio(requestContext(c), slideUUID, body.Speaker)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"audioUrl": url})
}
