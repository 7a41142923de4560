// Package intent 提供意图识别/检索引擎（Rasa REST webhook）的客户端。
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vaahiiid/askimateplatform/internal/config"
)

// GroundingResult 是引擎对一条（工作语言）消息的回答。
// Text 是可直接嵌入 prompt 的 grounding 上下文；引擎无响应时为空字符串。
type GroundingResult struct {
	Text     string
	Metadata []map[string]interface{}
}

// Client defines the interface for the grounding engine client.
type Client interface {
	// Ground 将消息与会话标识发给引擎并取回 grounding 上下文。
	// 引擎可能按 sender 维护自己的对话状态，因此调用只在传输层是可重试的，
	// 语义上并不幂等。
	Ground(ctx context.Context, message, sessionID string) (GroundingResult, error)
}

type rasaClient struct {
	cfg    config.IntentConfig
	client *http.Client
}

// NewClient 创建一个新的引擎客户端实例。
func NewClient(cfg config.IntentConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &rasaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// webhookRequest 对应 Rasa REST webhook 的请求体。
type webhookRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// webhookReply 对应 webhook 响应数组中的单个元素。
type webhookReply struct {
	RecipientID string                 `json:"recipient_id"`
	Text        string                 `json:"text"`
	Custom      map[string]interface{} `json:"custom,omitempty"`
}

// Ground 调用引擎。空响应映射为空的 grounding 上下文而非错误。
func (c *rasaClient) Ground(ctx context.Context, message, sessionID string) (GroundingResult, error) {
	reqBody := webhookRequest{Sender: sessionID, Message: message}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return GroundingResult{}, fmt.Errorf("序列化 webhook 请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(reqBytes))
	if err != nil {
		return GroundingResult{}, fmt.Errorf("创建 webhook 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return GroundingResult{}, fmt.Errorf("调用意图引擎失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return GroundingResult{}, fmt.Errorf("意图引擎返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	var replies []webhookReply
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		return GroundingResult{}, fmt.Errorf("解析意图引擎响应失败: %w", err)
	}

	var result GroundingResult
	var texts []string
	for _, reply := range replies {
		if reply.Text != "" {
			texts = append(texts, reply.Text)
		}
		if reply.Custom != nil {
			result.Metadata = append(result.Metadata, reply.Custom)
		}
	}
	result.Text = strings.Join(texts, "\n")
	return result, nil
}
