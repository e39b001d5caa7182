package comfy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultravionic/cozyui/internal/comfy"
	"github.com/ultravionic/cozyui/pkg/ports"
)

// stubEngine fakes the ComfyUI endpoints the client talks to.
func stubEngine(t *testing.T, outputs string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/client_id", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"client_id": "cid-1"})
	})
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt   json.RawMessage `json:"prompt"`
			ClientID string          `json:"client_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cid-1", body.ClientID)
		assert.NotEmpty(t, body.Prompt)
		json.NewEncoder(w).Encode(map[string]string{"prompt_id": "p-123"})
	})
	mux.HandleFunc("/history/", func(w http.ResponseWriter, r *http.Request) {
		if outputs == "" {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"p-123":{"outputs":` + outputs + `}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Queue(t *testing.T) {
	srv := stubEngine(t, "")
	client := comfy.New(srv.URL)

	jobID, err := client.Queue(context.Background(), json.RawMessage(`{"1":{"class_type":"KSampler"}}`))
	require.NoError(t, err)
	assert.Equal(t, "p-123", jobID)
}

func TestClient_StatusPending(t *testing.T) {
	srv := stubEngine(t, "")
	client := comfy.New(srv.URL)

	status, err := client.Status(context.Background(), "p-123")
	require.NoError(t, err)
	assert.Equal(t, ports.JobPending, status.Status)
	assert.Empty(t, status.Outputs)
}

func TestClient_StatusCompleted(t *testing.T) {
	srv := stubEngine(t, `{"9":{"images":[{"filename":"render_0001.png"}]}}`)
	client := comfy.New(srv.URL)

	status, err := client.Status(context.Background(), "p-123")
	require.NoError(t, err)
	assert.Equal(t, ports.JobCompleted, status.Status)
	assert.Contains(t, string(status.Outputs), "render_0001.png")
}

func TestClient_EngineDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := comfy.New(srv.URL)
	_, err := client.Queue(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}
