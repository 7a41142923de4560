package llm

import "strings"

// Llama 3.1 聊天模板的分隔符。这些是模型侧约定，不可改动。
const (
	promptBegin   = "<|begin_of_text|>"
	headerStart   = "<|start_header_id|>"
	headerEnd     = "<|end_header_id|>"
	endOfTurn     = "<|eot_id|>"
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

// Message 表示一条角色消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ComposePrompt 按 Llama 3.1 聊天模板拼装完整 prompt：
// 一个 system 段、按时间顺序重放的历史段（role 为 "user" 映射为 user 段，
// 其余一律映射为 assistant 段）、当前用户消息段，
// 最后是留给模型续写的 assistant 开放段。
// 历史为空时只有 system 段和当前 user 段。历史顺序原样保留，不重排不去重。
func ComposePrompt(systemMessage string, history []Message, userMessage string) string {
	var b strings.Builder

	b.WriteString(promptBegin)
	writeSegment(&b, roleSystem, systemMessage)

	for _, msg := range history {
		if msg.Role == roleUser {
			writeSegment(&b, roleUser, msg.Content)
		} else {
			writeSegment(&b, roleAssistant, msg.Content)
		}
	}

	writeSegment(&b, roleUser, userMessage)

	// 开放的 assistant 段，由模型补全
	b.WriteString(headerStart)
	b.WriteString(roleAssistant)
	b.WriteString(headerEnd)
	b.WriteString("\n\n")

	return b.String()
}

func writeSegment(b *strings.Builder, role, content string) {
	b.WriteString(headerStart)
	b.WriteString(role)
	b.WriteString(headerEnd)
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString(endOfTurn)
}
