// Package translate 提供用户语言与工作语言（英语）之间的双向翻译。
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/pkg/llm"
	"github.com/vaahiiid/askimateplatform/pkg/log"
)

const toEnglishTemplate = `You are a professional translator. Translate the following %s text to English accurately. Maintain the original meaning, context, and intent. If there are any spelling errors or typos in the source text, correct them during translation. Provide ONLY the English translation without any additional text or explanation.`

const fromEnglishTemplate = `You are a professional translator. Translate the following English text to %s accurately. Maintain the original meaning, context, and intent. Make sure the translation is natural and fluent in %s. Provide ONLY the %s translation without any additional text or explanation.`

// Translator 通过生成模型完成翻译。所有失败都按 fail-open 处理：
// 返回原文并记录日志，绝不向调用方抛错。宁可答错语言，也不让整个回合失败。
type Translator struct {
	client  llm.Client
	timeout time.Duration
}

// New 创建一个 Translator。timeout 限制单次翻译调用的时长。
func New(client llm.Client, timeout time.Duration) *Translator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Translator{client: client, timeout: timeout}
}

// ToEnglish 将 source 语言的文本翻译为英语。
// source 为英语（大小写不敏感）时直接返回原文，不发起调用。
func (t *Translator) ToEnglish(ctx context.Context, text, source string) string {
	if strings.EqualFold(source, model.LanguageEnglish) {
		return text
	}
	system := fmt.Sprintf(toEnglishTemplate, source)
	return t.translate(ctx, text, system, "to_english", source)
}

// FromEnglish 将英语文本翻译为 target 语言。
// target 为英语（大小写不敏感）时直接返回原文，不发起调用。
func (t *Translator) FromEnglish(ctx context.Context, text, target string) string {
	if strings.EqualFold(target, model.LanguageEnglish) {
		return text
	}
	system := fmt.Sprintf(fromEnglishTemplate, target, target, target)
	return t.translate(ctx, text, system, "from_english", target)
}

func (t *Translator) translate(ctx context.Context, text, system, direction, language string) string {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	prompt := llm.ComposePrompt(system, nil, text)
	translated, err := t.client.Complete(callCtx, prompt, llm.GenerationParams{
		MaxGenLen:   500,
		Temperature: 0.2,
		TopP:        0.9,
	})
	if err != nil {
		// fail-open：退回未翻译的原文
		log.Warnw("翻译失败，返回原文", "direction", direction, "language", language, "error", err)
		return text
	}
	if translated == "" {
		log.Warnw("翻译返回空文本，返回原文", "direction", direction, "language", language)
		return text
	}
	return translated
}
