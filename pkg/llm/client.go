// Package llm provides a client for invoking the generative completion model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vaahiiid/askimateplatform/internal/config"
)

// ErrCompletionFailed 标记一次不可恢复的补全失败。
// 与翻译不同，补全是回答内容的唯一来源，失败必须上抛给调用方处理。
var ErrCompletionFailed = errors.New("completion failed")

// GenerationParams 控制生成行为。
type GenerationParams struct {
	MaxGenLen   int
	Temperature float64
	TopP        float64
}

// Client defines the interface for a completion client.
type Client interface {
	// Complete 以完整的 prompt 调用生成模型并返回生成文本。
	Complete(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

type httpClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new completion client from the config.
func NewClient(cfg config.LLMConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// invokeRequest 对应模型服务的请求体。
type invokeRequest struct {
	Prompt      string  `json:"prompt"`
	MaxGenLen   int     `json:"max_gen_len"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// invokeResponse 对应模型服务的响应体。generation 缺失时按空文本处理，
// 绝不假定字段一定存在。
type invokeResponse struct {
	Generation string `json:"generation"`
}

// Complete 调用生成模型服务。传输、非 200 或解码失败都会返回包裹
// ErrCompletionFailed 的错误。
func (c *httpClient) Complete(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	reqBody := invokeRequest{
		Prompt:      prompt,
		MaxGenLen:   params.MaxGenLen,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal invoke request: %v", ErrCompletionFailed, err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/model/" + c.cfg.ModelID + "/invoke"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create invoke request: %v", ErrCompletionFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to call model api: %v", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: model api returned non-200 status: %s, body: %s", ErrCompletionFailed, resp.Status, string(bodyBytes))
	}

	var result invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode model response: %v", ErrCompletionFailed, err)
	}

	return strings.TrimSpace(result.Generation), nil
}
