package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		AccountID: "acct-1",
		APIToken:  "token-1",
		BaseURL:   baseURL,
		Provider:  "workers-ai",
		Vendor:    "myshell-ai",
		Model:     "melotts",
	}
}

func TestNewTTSClientValidation(t *testing.T) {
	_, err := NewTTSClient(Config{})
	require.Error(t, err)

	cfg := testConfig("")
	cfg.APIToken = ""
	_, err = NewTTSClient(cfg)
	require.Error(t, err)
}

func TestSynthesize(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	client, err := NewTTSClient(testConfig(server.URL))
	require.NoError(t, err)

	audio, err := client.Synthesize(context.Background(), "Hello stars", "alice")
	require.NoError(t, err)
	require.Equal(t, []byte("audio-bytes"), audio)

	require.Equal(t, "/client/v4/accounts/acct-1/ai/run/workers-ai/myshell-ai/melotts", gotPath)
	require.Equal(t, "Bearer token-1", gotAuth)
	require.Equal(t, "Hello stars", gotBody["text"])
	require.Equal(t, "mp3", gotBody["encoding"])
	require.Equal(t, "alice", gotBody["speaker"])
}

func TestSynthesizeOmitsBlankSpeaker(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("x"))
	}))
	defer server.Close()

	client, err := NewTTSClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "text", "   ")
	require.NoError(t, err)
	_, hasSpeaker := gotBody["speaker"]
	require.False(t, hasSpeaker)
}

func TestSynthesizeErrorIncludesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"errors":[{"message":"model overloaded"}]}`))
	}))
	defer server.Close()

	client, err := NewTTSClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "text", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
	require.Contains(t, err.Error(), "model overloaded")
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client, err := NewTTSClient(testConfig("http://localhost:0"))
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "  ", "alice")
	require.Error(t, err)
}
