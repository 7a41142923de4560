// Package langdetect provides language detection for user utterances.
package langdetect

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/pkg/llm"
	"github.com/vaahiiid/askimateplatform/pkg/log"
)

// 低于该长度的片段对统计检测不可靠，直接按英语处理而不是乱猜。
const shortTextThreshold = 5

// Detector 定义了语言检测的统一契约。返回值始终是人类可读的语言名称，
// 或哨兵 "Unknown"/"English"。
type Detector interface {
	Detect(ctx context.Context, text string) string
}

// New 根据配置选择检测策略：
// "llm" 使用生成模型检测（更准，代价是延迟与非确定性），
// 其余情况使用本地统计检测。
func New(cfg config.DetectorConfig, llmClient llm.Client) Detector {
	if strings.EqualFold(cfg.Strategy, "llm") {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return &llmDetector{client: llmClient, timeout: timeout}
	}
	return newStatisticalDetector()
}

// preclassify 应用与策略无关的前置规则。
// done 为 true 时 label 即为最终结果，无需再做分类。
func preclassify(text string) (label string, done bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.LanguageUnknown, true
	}
	if utf8.RuneCountInString(trimmed) < shortTextThreshold {
		return model.LanguageEnglish, true
	}
	return "", false
}

// statisticalDetector 基于 lingua 的本地统计检测，不发起网络调用，
// 对同一输入是确定性的。
type statisticalDetector struct {
	detector lingua.LanguageDetector
}

func newStatisticalDetector() *statisticalDetector {
	return &statisticalDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// Detect 返回文本的主导语言名称。
func (d *statisticalDetector) Detect(_ context.Context, text string) string {
	if label, done := preclassify(text); done {
		return label
	}

	language, ok := d.detector.DetectLanguageOf(strings.TrimSpace(text))
	if !ok {
		// 不支持的文字或无法判定
		return model.LanguageUnknown
	}
	// ISO "en" 归一化为 "English"，其余语言使用 lingua 的英文名称
	if language.IsoCode639_1() == lingua.EN {
		return model.LanguageEnglish
	}
	return language.String()
}

// llmDetector 调用生成模型做检测，对应原平台的检测方式。
type llmDetector struct {
	client  llm.Client
	timeout time.Duration
}

const detectSystemMessage = `You are a language detection expert. Detect the language of the given text and respond with ONLY the language name in English (e.g., "English", "Persian", "Arabic", "French", "Spanish", "German", etc.). If the text contains multiple languages, identify the dominant language. Be very accurate in your detection.`

// Detect 通过生成模型识别语言；模型调用失败或返回空时降级为 "Unknown"。
func (d *llmDetector) Detect(ctx context.Context, text string) string {
	if label, done := preclassify(text); done {
		return label
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	prompt := llm.ComposePrompt(detectSystemMessage, nil, text)
	generated, err := d.client.Complete(callCtx, prompt, llm.GenerationParams{
		MaxGenLen:   50,
		Temperature: 0.1,
		TopP:        0.9,
	})
	if err != nil {
		log.Warnw("语言检测失败，降级为 Unknown", "error", err)
		return model.LanguageUnknown
	}

	label := strings.TrimSpace(generated)
	if label == "" {
		return model.LanguageUnknown
	}
	if strings.EqualFold(label, "en") || strings.EqualFold(label, model.LanguageEnglish) {
		return model.LanguageEnglish
	}
	return label
}
