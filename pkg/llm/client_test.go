package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaahiiid/askimateplatform/internal/config"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.LLMConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		ModelID:        "test-model",
		TimeoutSeconds: 5,
	})
}

func TestCompleteSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"generation": "  a helpful answer  "}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.Complete(context.Background(), "the prompt", GenerationParams{
		MaxGenLen:   500,
		Temperature: 0.7,
		TopP:        0.9,
	})
	require.NoError(t, err)
	// 生成文本两端空白被裁剪
	require.Equal(t, "a helpful answer", got)

	require.Equal(t, "/model/test-model/invoke", gotPath)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "the prompt", gotBody["prompt"])
	require.Equal(t, float64(500), gotBody["max_gen_len"])
	require.Equal(t, 0.7, gotBody["temperature"])
	require.Equal(t, 0.9, gotBody["top_p"])
}

func TestCompleteMissingGenerationField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.Complete(context.Background(), "p", GenerationParams{})
	// 字段缺失按空文本处理，不是错误
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCompleteNon200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "p", GenerationParams{})
	require.ErrorIs(t, err, ErrCompletionFailed)
}

func TestCompleteTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // 立即关闭，制造连接失败

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "p", GenerationParams{})
	require.ErrorIs(t, err, ErrCompletionFailed)
}

func TestCompleteMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "p", GenerationParams{})
	require.ErrorIs(t, err, ErrCompletionFailed)
}
