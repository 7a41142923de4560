package langdetect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/pkg/llm"
)

type fakeClient struct {
	generation string
	err        error
	calls      int
}

func (c *fakeClient) Complete(_ context.Context, _ string, _ llm.GenerationParams) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.generation, nil
}

func TestPreclassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		label    string
		done     bool
	}{
		{"empty", "", model.LanguageUnknown, true},
		{"whitespace only", "   \n\t", model.LanguageUnknown, true},
		{"short greeting", "hi", model.LanguageEnglish, true},
		{"four runes", "hey!", model.LanguageEnglish, true},
		{"short non-latin", "سلام", model.LanguageEnglish, true},
		{"long enough", "hello", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, done := preclassify(tt.text)
			require.Equal(t, tt.done, done)
			require.Equal(t, tt.label, label)
		})
	}
}

func TestStatisticalDetector(t *testing.T) {
	d := New(config.DetectorConfig{Strategy: "statistical"}, nil)

	require.Equal(t, model.LanguageUnknown, d.Detect(context.Background(), ""))
	require.Equal(t, model.LanguageEnglish, d.Detect(context.Background(), "hi"))
	require.Equal(t, model.LanguageEnglish, d.Detect(context.Background(), "Hello, I would like to study computer science in the United Kingdom."))
	require.Equal(t, "German", d.Detect(context.Background(), "Guten Morgen, ich möchte in Deutschland studieren und brauche Hilfe."))
}

func TestLLMDetectorShortTextSkipsModel(t *testing.T) {
	client := &fakeClient{generation: "French"}
	d := New(config.DetectorConfig{Strategy: "llm", TimeoutSeconds: 1}, client)

	// 前置规则优先，不发起模型调用
	require.Equal(t, model.LanguageEnglish, d.Detect(context.Background(), "hey"))
	require.Equal(t, model.LanguageUnknown, d.Detect(context.Background(), "  "))
	require.Zero(t, client.calls)
}

func TestLLMDetectorUsesModelLabel(t *testing.T) {
	client := &fakeClient{generation: "Persian"}
	d := New(config.DetectorConfig{Strategy: "llm", TimeoutSeconds: 1}, client)

	require.Equal(t, "Persian", d.Detect(context.Background(), "یک جملهٔ به اندازهٔ کافی بلند"))
	require.Equal(t, 1, client.calls)
}

func TestLLMDetectorNormalizesEnglishLabels(t *testing.T) {
	for _, generation := range []string{"en", "EN", "english", "English"} {
		client := &fakeClient{generation: generation}
		d := New(config.DetectorConfig{Strategy: "llm", TimeoutSeconds: 1}, client)
		require.Equal(t, model.LanguageEnglish, d.Detect(context.Background(), "a long enough sentence"))
	}
}

func TestLLMDetectorFailureFallsBackToUnknown(t *testing.T) {
	client := &fakeClient{err: errors.New("model down")}
	d := New(config.DetectorConfig{Strategy: "llm", TimeoutSeconds: 1}, client)

	require.Equal(t, model.LanguageUnknown, d.Detect(context.Background(), "a long enough sentence"))
}

func TestLLMDetectorEmptyLabelFallsBackToUnknown(t *testing.T) {
	client := &fakeClient{generation: "   "}
	d := New(config.DetectorConfig{Strategy: "llm", TimeoutSeconds: 1}, client)

	require.Equal(t, model.LanguageUnknown, d.Detect(context.Background(), "a long enough sentence"))
}

func TestStrategySelection(t *testing.T) {
	d := New(config.DetectorConfig{Strategy: "llm"}, &fakeClient{})
	_, ok := d.(*llmDetector)
	require.True(t, ok)

	d = New(config.DetectorConfig{Strategy: "statistical"}, nil)
	_, ok = d.(*statisticalDetector)
	require.True(t, ok)

	// 未知策略回退到本地统计检测
	d = New(config.DetectorConfig{Strategy: ""}, nil)
	_, ok = d.(*statisticalDetector)
	require.True(t, ok)
}
