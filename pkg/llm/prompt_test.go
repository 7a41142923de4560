package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposePromptWithoutHistory(t *testing.T) {
	prompt := ComposePrompt("you are a helpful assistant", nil, "hello")

	expected := "<|begin_of_text|>" +
		"<|start_header_id|>system<|end_header_id|>\n\nyou are a helpful assistant<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nhello<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	require.Equal(t, expected, prompt)
}

func TestComposePromptReplaysHistoryInOrder(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "first question"},
		{Role: "bot", Content: "first answer"},
		{Role: "user", Content: "second question"},
		{Role: "bot", Content: "second answer"},
	}

	prompt := ComposePrompt("system text", history, "third question")

	// 历史顺序原样保留
	require.Less(t, strings.Index(prompt, "first question"), strings.Index(prompt, "first answer"))
	require.Less(t, strings.Index(prompt, "first answer"), strings.Index(prompt, "second question"))
	require.Less(t, strings.Index(prompt, "second answer"), strings.Index(prompt, "third question"))

	// 非 user 角色一律映射到 assistant 段
	require.Contains(t, prompt, "<|start_header_id|>assistant<|end_header_id|>\n\nfirst answer<|eot_id|>")
	require.Contains(t, prompt, "<|start_header_id|>user<|end_header_id|>\n\nsecond question<|eot_id|>")
}

func TestComposePromptEndsWithOpenAssistantHeader(t *testing.T) {
	prompt := ComposePrompt("s", []Message{{Role: "user", Content: "q"}}, "q2")
	require.True(t, strings.HasSuffix(prompt, "<|start_header_id|>assistant<|end_header_id|>\n\n"))
	require.True(t, strings.HasPrefix(prompt, "<|begin_of_text|>"))
}
