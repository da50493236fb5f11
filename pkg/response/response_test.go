package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/eddie-kann/astrokiddo/pkg/errors"
)

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Success(c, 200, gin.H{"topic": "mars"})

	require.Equal(t, 200, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Nil(t, body.Error)
}

func TestErrorEnvelopeUsesAppErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Error(c, appErrors.ErrDeckNotFound)

	require.Equal(t, 404, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "deck.not_found", body.Error.Code)
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(0, 20, 41)
	require.Equal(t, 3, meta.TotalPages)
	require.EqualValues(t, 41, meta.Total)

	empty := NewMeta(0, 0, 10)
	require.Zero(t, empty.TotalPages)
}
