package translate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vaahiiid/askimateplatform/pkg/llm"
)

type fakeClient struct {
	generation string
	err        error
	calls      int
	lastPrompt string
}

func (c *fakeClient) Complete(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	c.calls++
	c.lastPrompt = prompt
	if c.err != nil {
		return "", c.err
	}
	return c.generation, nil
}

func TestToEnglishShortCircuitsForEnglish(t *testing.T) {
	client := &fakeClient{generation: "should never be used"}
	tr := New(client, time.Second)

	// 英语源语言不发起任何模型调用
	for _, source := range []string{"English", "english", "ENGLISH"} {
		got := tr.ToEnglish(context.Background(), "hello there", source)
		require.Equal(t, "hello there", got)
	}
	require.Zero(t, client.calls)
}

func TestFromEnglishShortCircuitsForEnglish(t *testing.T) {
	client := &fakeClient{generation: "should never be used"}
	tr := New(client, time.Second)

	got := tr.FromEnglish(context.Background(), "the answer", "English")
	require.Equal(t, "the answer", got)
	require.Zero(t, client.calls)
}

func TestToEnglishTranslates(t *testing.T) {
	client := &fakeClient{generation: "Hello, when can I apply?"}
	tr := New(client, time.Second)

	got := tr.ToEnglish(context.Background(), "سلام، کی میتونم اقدام کنم؟", "Persian")
	require.Equal(t, "Hello, when can I apply?", got)
	require.Equal(t, 1, client.calls)
	// 翻译指令中携带源语言名称
	require.Contains(t, client.lastPrompt, "Persian text to English")
}

func TestFromEnglishTranslates(t *testing.T) {
	client := &fakeClient{generation: "Bonjour!"}
	tr := New(client, time.Second)

	got := tr.FromEnglish(context.Background(), "Hello!", "French")
	require.Equal(t, "Bonjour!", got)
	require.Contains(t, client.lastPrompt, "English text to French")
}

func TestTranslateFailOpenReturnsInput(t *testing.T) {
	client := &fakeClient{err: errors.New("model down")}
	tr := New(client, time.Second)

	got := tr.ToEnglish(context.Background(), "不管发生什么都要返回原文", "Chinese")
	require.Equal(t, "不管发生什么都要返回原文", got)

	got = tr.FromEnglish(context.Background(), "never lose the answer", "Chinese")
	require.Equal(t, "never lose the answer", got)
}

func TestTranslateEmptyResultReturnsInput(t *testing.T) {
	client := &fakeClient{generation: ""}
	tr := New(client, time.Second)

	got := tr.ToEnglish(context.Background(), "texto original", "Spanish")
	require.Equal(t, "texto original", got)
}

func TestTranslatePromptShape(t *testing.T) {
	client := &fakeClient{generation: "ok"}
	tr := New(client, time.Second)

	tr.ToEnglish(context.Background(), "guten tag", "German")
	// 翻译走与聊天相同的聊天模板：system 指令 + user 正文
	require.True(t, strings.HasPrefix(client.lastPrompt, "<|begin_of_text|>"))
	require.Contains(t, client.lastPrompt, "guten tag")
}
