package intent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaahiiid/askimateplatform/internal/config"
)

func newTestGrounder(url string) Client {
	return NewClient(config.IntentConfig{WebhookURL: url, TimeoutSeconds: 5})
}

func TestGroundJoinsReplies(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"recipient_id": "s-1", "text": "AskiMate helps with UK applications."},
			{"recipient_id": "s-1", "text": "Deadlines are usually in January.", "custom": {"source": "faq"}}
		]`))
	}))
	defer server.Close()

	result, err := newTestGrounder(server.URL).Ground(context.Background(), "tell me about deadlines", "s-1")
	require.NoError(t, err)
	require.Equal(t, "AskiMate helps with UK applications.\nDeadlines are usually in January.", result.Text)
	require.Len(t, result.Metadata, 1)
	require.Equal(t, "faq", result.Metadata[0]["source"])

	// 会话标识作为 sender 传给引擎
	require.Equal(t, "s-1", gotBody["sender"])
	require.Equal(t, "tell me about deadlines", gotBody["message"])
}

func TestGroundEmptyReplyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	// 空响应是合法结果，不是错误
	result, err := newTestGrounder(server.URL).Ground(context.Background(), "hi there friend", "s-2")
	require.NoError(t, err)
	require.Empty(t, result.Text)
	require.Empty(t, result.Metadata)
}

func TestGroundNon200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rasa exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestGrounder(server.URL).Ground(context.Background(), "anything", "s-3")
	require.Error(t, err)
}

func TestGroundTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := newTestGrounder(server.URL).Ground(context.Background(), "anything", "s-4")
	require.Error(t, err)
}
