package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/pkg/intent"
	"github.com/vaahiiid/askimateplatform/pkg/llm"
)

type fakeDetector struct {
	label string
	calls int
}

func (d *fakeDetector) Detect(_ context.Context, _ string) string {
	d.calls++
	return d.label
}

// fakeTranslator 模拟真实翻译器的行为：英语短路，其余加前缀标记。
type fakeTranslator struct {
	toEnglishCalls   int
	fromEnglishCalls int
}

func (t *fakeTranslator) ToEnglish(_ context.Context, text, source string) string {
	if strings.EqualFold(source, model.LanguageEnglish) {
		return text
	}
	t.toEnglishCalls++
	return "EN(" + text + ")"
}

func (t *fakeTranslator) FromEnglish(_ context.Context, text, target string) string {
	if strings.EqualFold(target, model.LanguageEnglish) {
		return text
	}
	t.fromEnglishCalls++
	return target + "(" + text + ")"
}

type fakeGrounder struct {
	result intent.GroundingResult
	err    error
	calls  int
}

func (g *fakeGrounder) Ground(_ context.Context, _, _ string) (intent.GroundingResult, error) {
	g.calls++
	return g.result, g.err
}

type fakeCompleter struct {
	answer     string
	err        error
	lastPrompt string
	calls      int
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	c.calls++
	c.lastPrompt = prompt
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

type fakeStore struct {
	history      []model.ChatMessage
	historyErr   error
	appendErr    error
	appendedUser *model.ChatMessage
	appendedBot  *model.ChatMessage
	language     string
	languageErr  error
}

func (s *fakeStore) History(_ context.Context, _ string) ([]model.ChatMessage, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func (s *fakeStore) AppendTurn(_ context.Context, userMsg, botMsg *model.ChatMessage) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appendedUser = userMsg
	s.appendedBot = botMsg
	return nil
}

func (s *fakeStore) UpdateSessionLanguage(_ context.Context, _, language string) error {
	if s.languageErr != nil {
		return s.languageErr
	}
	s.language = language
	return nil
}

func newTestPipeline(detector *fakeDetector, translator *fakeTranslator, grounder *fakeGrounder, completer *fakeCompleter, store *fakeStore) *Pipeline {
	return New(detector, translator, grounder, completer, store, config.LLMConfig{})
}

func TestRunRejectsEmptyMessage(t *testing.T) {
	detector := &fakeDetector{label: model.LanguageEnglish}
	store := &fakeStore{}
	p := newTestPipeline(detector, &fakeTranslator{}, &fakeGrounder{}, &fakeCompleter{answer: "hi"}, store)

	for _, raw := range []string{"", "   ", "\n\t"} {
		result, err := p.Run(context.Background(), "s-1", raw)
		require.ErrorIs(t, err, ErrEmptyMessage)
		require.Nil(t, result)
	}

	// 空消息不触达任何外部协作方，也不落任何记录
	require.Zero(t, detector.calls)
	require.Nil(t, store.appendedUser)
	require.Nil(t, store.appendedBot)
}

func TestRunEnglishTurnSkipsTranslation(t *testing.T) {
	detector := &fakeDetector{label: model.LanguageEnglish}
	translator := &fakeTranslator{}
	completer := &fakeCompleter{answer: "London is a great choice."}
	store := &fakeStore{}
	p := newTestPipeline(detector, translator, &fakeGrounder{}, completer, store)

	result, err := p.Run(context.Background(), "s-1", "Tell me about studying in London")
	require.NoError(t, err)

	require.Equal(t, "London is a great choice.", result.Answer)
	require.Equal(t, model.LanguageEnglish, result.DetectedLanguage)
	require.Equal(t, "Tell me about studying in London", result.OriginalMessage)
	require.False(t, result.Translated)
	require.Empty(t, result.TranslatedMessage)
	require.Empty(t, result.FailedStage)

	// 英语回合不发生任何真正的翻译调用
	require.Zero(t, translator.toEnglishCalls)
	require.Zero(t, translator.fromEnglishCalls)

	// 固定追加两条记录：user 先于 bot
	require.NotNil(t, store.appendedUser)
	require.NotNil(t, store.appendedBot)
	require.Equal(t, model.SenderUser, store.appendedUser.Sender)
	require.Equal(t, model.SenderBot, store.appendedBot.Sender)
	require.True(t, store.appendedUser.Timestamp.Before(store.appendedBot.Timestamp))
	require.False(t, store.appendedUser.IsTranslated)
	require.Empty(t, store.appendedUser.TranslatedMessage)
	require.Equal(t, model.LanguageEnglish, store.language)
}

func TestRunTranslatedTurn(t *testing.T) {
	detector := &fakeDetector{label: "Persian"}
	translator := &fakeTranslator{}
	completer := &fakeCompleter{answer: "You can apply in January."}
	store := &fakeStore{}
	p := newTestPipeline(detector, translator, &fakeGrounder{}, completer, store)

	result, err := p.Run(context.Background(), "s-2", "سلام، کی میتونم اقدام کنم؟")
	require.NoError(t, err)

	require.Equal(t, "Persian", result.DetectedLanguage)
	require.True(t, result.Translated)
	require.Equal(t, "EN(سلام، کی میتونم اقدام کنم؟)", result.TranslatedMessage)
	require.Equal(t, "Persian(You can apply in January.)", result.Answer)
	require.Equal(t, 1, translator.toEnglishCalls)
	require.Equal(t, 1, translator.fromEnglishCalls)

	// user 记录保留原文与归一化译文，bot 记录保留英文原答
	require.Equal(t, "سلام، کی میتونم اقدام کنم؟", store.appendedUser.Message)
	require.Equal(t, "EN(سلام، کی میتونم اقدام کنم؟)", store.appendedUser.TranslatedMessage)
	require.True(t, store.appendedUser.IsTranslated)
	require.Equal(t, "You can apply in January.", store.appendedBot.OriginalMessage)
	require.Equal(t, "Persian(You can apply in January.)", store.appendedBot.Message)
	require.Equal(t, "Persian", store.language)
}

func TestRunCompletionFailureSubstitutesApology(t *testing.T) {
	detector := &fakeDetector{label: "French"}
	translator := &fakeTranslator{}
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	store := &fakeStore{}
	p := newTestPipeline(detector, translator, &fakeGrounder{}, completer, store)

	result, err := p.Run(context.Background(), "s-3", "Bonjour, parlez-moi des universités")
	require.NoError(t, err)

	// 道歉文本同样走翻译阶段
	require.Equal(t, "French("+apologyText+")", result.Answer)
	require.Equal(t, StageCompleted, result.FailedStage)
	require.Equal(t, "French", result.DetectedLanguage)

	// 失败的回合照常持久化，bot 原文是英文道歉语
	require.NotNil(t, store.appendedBot)
	require.Equal(t, apologyText, store.appendedBot.OriginalMessage)
}

func TestRunGroundingFailureIsAbsorbed(t *testing.T) {
	grounder := &fakeGrounder{err: errors.New("webhook down")}
	completer := &fakeCompleter{answer: "Best effort answer."}
	store := &fakeStore{}
	p := newTestPipeline(&fakeDetector{label: model.LanguageEnglish}, &fakeTranslator{}, grounder, completer, store)

	result, err := p.Run(context.Background(), "s-4", "What scholarships exist?")
	require.NoError(t, err)
	require.Equal(t, "Best effort answer.", result.Answer)
	require.Empty(t, result.FailedStage)
	require.Equal(t, 1, completer.calls)
}

func TestRunHistoryFailureIsAbsorbed(t *testing.T) {
	store := &fakeStore{historyErr: errors.New("db timeout")}
	completer := &fakeCompleter{answer: "Answer without history."}
	p := newTestPipeline(&fakeDetector{label: model.LanguageEnglish}, &fakeTranslator{}, &fakeGrounder{}, completer, store)

	result, err := p.Run(context.Background(), "s-5", "How long are UK masters programs?")
	require.NoError(t, err)
	require.Equal(t, "Answer without history.", result.Answer)
	require.Empty(t, result.FailedStage)
}

func TestRunPersistenceFailureDoesNotBlockResponse(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("insert failed"), languageErr: errors.New("update failed")}
	completer := &fakeCompleter{answer: "Here you go."}
	p := newTestPipeline(&fakeDetector{label: model.LanguageEnglish}, &fakeTranslator{}, &fakeGrounder{}, completer, store)

	result, err := p.Run(context.Background(), "s-6", "List required documents")
	require.NoError(t, err)
	require.Equal(t, "Here you go.", result.Answer)
}

func TestRunPromptCarriesGroundingAndHistory(t *testing.T) {
	grounder := &fakeGrounder{result: intent.GroundingResult{Text: "Visa processing takes 3 weeks."}}
	store := &fakeStore{history: []model.ChatMessage{
		{
			Sender:            model.SenderUser,
			Message:           "ویزا چقدر طول میکشه؟",
			TranslatedMessage: "How long does the visa take?",
			IsTranslated:      true,
		},
		{
			Sender:          model.SenderBot,
			Message:         "حدود سه هفته.",
			OriginalMessage: "About three weeks.",
			IsTranslated:    true,
		},
	}}
	completer := &fakeCompleter{answer: "As mentioned, about three weeks."}
	p := newTestPipeline(&fakeDetector{label: model.LanguageEnglish}, &fakeTranslator{}, grounder, completer, store)

	_, err := p.Run(context.Background(), "s-7", "And how much does it cost?")
	require.NoError(t, err)

	// 历史以工作语言形态进入 prompt：user 取译文，bot 取英文原文
	require.Contains(t, completer.lastPrompt, "Visa processing takes 3 weeks.")
	require.Contains(t, completer.lastPrompt, "How long does the visa take?")
	require.Contains(t, completer.lastPrompt, "About three weeks.")
	require.NotContains(t, completer.lastPrompt, "ویزا چقدر طول میکشه؟")
}

func TestWorkingHistory(t *testing.T) {
	stored := []model.ChatMessage{
		{Sender: model.SenderUser, Message: "hola", TranslatedMessage: "hello", IsTranslated: true},
		{Sender: model.SenderBot, Message: "hola!", OriginalMessage: "hi there!", IsTranslated: true},
		{Sender: model.SenderUser, Message: "plain english", IsTranslated: false},
		{Sender: model.SenderBot, Message: "fallback only"},
	}

	history := workingHistory(stored)
	require.Len(t, history, 4)
	require.Equal(t, llm.Message{Role: "user", Content: "hello"}, history[0])
	require.Equal(t, llm.Message{Role: "bot", Content: "hi there!"}, history[1])
	require.Equal(t, llm.Message{Role: "user", Content: "plain english"}, history[2])
	require.Equal(t, llm.Message{Role: "bot", Content: "fallback only"}, history[3])
}

func TestRenderHistory(t *testing.T) {
	require.Equal(t, "(empty)", renderHistory(nil))

	rendered := renderHistory([]llm.Message{
		{Role: "user", Content: "question"},
		{Role: "bot", Content: "answer"},
	})
	require.Equal(t, "user: question\nbot: answer", rendered)
}

func TestGenerationParamsDefaults(t *testing.T) {
	p := newTestPipeline(&fakeDetector{}, &fakeTranslator{}, &fakeGrounder{}, &fakeCompleter{}, &fakeStore{})
	params := p.generationParams()
	require.Equal(t, 500, params.MaxGenLen)
	require.Equal(t, 0.7, params.Temperature)
	require.Equal(t, 0.9, params.TopP)

	p.llmCfg.Generation = config.LLMGenerationConfig{MaxGenLen: 128, Temperature: 0.3, TopP: 0.8}
	params = p.generationParams()
	require.Equal(t, 128, params.MaxGenLen)
	require.Equal(t, 0.3, params.Temperature)
	require.Equal(t, 0.8, params.TopP)
}
