// Package pipeline 定义了多语言聊天回合的核心处理流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/pkg/intent"
	"github.com/vaahiiid/askimateplatform/pkg/llm"
	"github.com/vaahiiid/askimateplatform/pkg/log"
)

// ErrEmptyMessage 表示回合校验失败：空消息在任何外部调用之前被拒绝，
// 不落任何持久化记录。
var ErrEmptyMessage = errors.New("message must not be empty")

// Stage 标识回合状态机中的一个阶段。
type Stage string

const (
	StageReceived         Stage = "received"
	StageLanguageDetected Stage = "language_detected"
	StageNormalized       Stage = "normalized"
	StageGrounded         Stage = "grounded"
	StageComposed         Stage = "composed"
	StageCompleted        Stage = "completed"
	StageTranslated       Stage = "translated"
	StagePersisted        Stage = "persisted"
	StageResponded        Stage = "responded"
)

// failPolicy 是每个阶段的显式失败策略，而不是散落在各处的 try/catch。
// 翻译和 grounding 只是质量增强，缺了它们仍能用英语或无引用作答；
// 补全是回答内容的唯一来源，没有静默替补，失败必须换成翻译后的固定道歉语。
type failPolicy int

const (
	failOpen failPolicy = iota
	failFatal
)

var stagePolicies = map[Stage]failPolicy{
	StageReceived:         failFatal,
	StageLanguageDetected: failOpen,
	StageNormalized:       failOpen,
	StageGrounded:         failOpen,
	StageComposed:         failOpen,
	StageCompleted:        failFatal,
	StageTranslated:       failOpen,
	StagePersisted:        failOpen,
}

// 补全失败时的固定道歉文本；会在 Translated 阶段被翻译成用户语言。
const apologyText = "Sorry, there was an error processing your request."

// Detector 识别一段文本的主导语言。
type Detector interface {
	Detect(ctx context.Context, text string) string
}

// Translator 在用户语言与英语之间双向翻译；失败在内部 fail-open。
type Translator interface {
	ToEnglish(ctx context.Context, text, source string) string
	FromEnglish(ctx context.Context, text, target string) string
}

// Completer 调用生成模型获得补全文本。
type Completer interface {
	Complete(ctx context.Context, prompt string, params llm.GenerationParams) (string, error)
}

// ConversationStore 是回合读写会话历史的唯一共享资源。
// 历史每回合都从这里现读，绝不跨回合缓存。
type ConversationStore interface {
	History(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	AppendTurn(ctx context.Context, userMsg, botMsg *model.ChatMessage) error
	UpdateSessionLanguage(ctx context.Context, sessionID, language string) error
}

// TurnResult 是一个回合的统一响应信封。
type TurnResult struct {
	SessionID        string
	Answer           string
	DetectedLanguage string
	OriginalMessage  string
	// TranslatedMessage 仅在检测语言不是英语时有值（翻译后的用户消息）。
	TranslatedMessage string
	Translated        bool
	// FailedStage 记录按 fail-fatal 策略失败过的阶段；全程成功时为空。
	FailedStage Stage
}

// Pipeline 封装了一个回合所需的全部外部协作方，均在构造时注入。
type Pipeline struct {
	detector   Detector
	translator Translator
	grounder   intent.Client
	completer  Completer
	store      ConversationStore
	llmCfg     config.LLMConfig
}

// New 创建一个回合处理管道。
func New(
	detector Detector,
	translator Translator,
	grounder intent.Client,
	completer Completer,
	store ConversationStore,
	llmCfg config.LLMConfig,
) *Pipeline {
	return &Pipeline{
		detector:   detector,
		translator: translator,
		grounder:   grounder,
		completer:  completer,
		store:      store,
		llmCfg:     llmCfg,
	}
}

// Run 顺序执行一个回合：
// Received → LanguageDetected → Normalized → Grounded → Composed →
// Completed → Translated → Persisted → Responded。
// 阶段内部严格串行，每个外部调用的结果是下一阶段的前置条件。
func (p *Pipeline) Run(ctx context.Context, sessionID, rawMessage string) (*TurnResult, error) {
	// Received：空消息直接拒绝，不做任何外部调用，不落任何记录
	if strings.TrimSpace(rawMessage) == "" {
		return nil, ErrEmptyMessage
	}

	// LanguageDetected：对原始消息做语言检测
	detected := p.detector.Detect(ctx, rawMessage)

	// Normalized：归一化到工作语言。翻译内部 fail-open，本阶段必然到达 Grounded
	english := p.translator.ToEnglish(ctx, rawMessage, detected)

	// Grounded：引擎失败降级为空上下文，无引用的回合仍给出尽力而为的回答
	grounding, err := p.grounder.Ground(ctx, english, sessionID)
	if !p.absorb(StageGrounded, err) {
		grounding = intent.GroundingResult{}
	}

	// Composed：历史总是在此刻从存储现读，工作语言形态
	stored, err := p.store.History(ctx, sessionID)
	if !p.absorb(StageComposed, err) {
		stored = nil
	}
	history := workingHistory(stored)
	system := p.buildSystemMessage(grounding.Text, english, history)
	prompt := llm.ComposePrompt(system, history, english)

	// Completed：唯一的 fail-fatal 外部调用。失败换成固定道歉语，
	// 剩余阶段在道歉文本上照常运行，用户仍能收到自己语言的回复
	var failedStage Stage
	answerEN, err := p.completer.Complete(ctx, prompt, p.generationParams())
	if !p.absorb(StageCompleted, err) {
		log.Error("补全失败，以道歉文本继续本回合", err)
		failedStage = StageCompleted
		answerEN = apologyText
	}

	// Translated：译回最初检测到的语言
	answer := p.translator.FromEnglish(ctx, answerEN, detected)

	// Persisted：固定追加两条记录（user 先于 bot），并同步会话语言。
	// 存储失败不能挡住已经算出的回答
	translated := !strings.EqualFold(detected, model.LanguageEnglish)
	now := time.Now()
	userMsg := &model.ChatMessage{
		SessionID:        sessionID,
		Sender:           model.SenderUser,
		Message:          rawMessage,
		DetectedLanguage: detected,
		OriginalMessage:  rawMessage,
		IsTranslated:     translated,
		Timestamp:        now,
	}
	botMsg := &model.ChatMessage{
		SessionID:        sessionID,
		Sender:           model.SenderBot,
		Message:          answer,
		DetectedLanguage: detected,
		OriginalMessage:  answerEN,
		IsTranslated:     translated,
		Timestamp:        now.Add(time.Millisecond), // 同一回合内保证 user 在 bot 之前
	}
	if translated {
		userMsg.TranslatedMessage = english
		botMsg.TranslatedMessage = answer
	}
	if err := p.store.AppendTurn(ctx, userMsg, botMsg); err != nil {
		p.absorb(StagePersisted, fmt.Errorf("追加回合消息失败: %w", err))
	}
	if err := p.store.UpdateSessionLanguage(ctx, sessionID, detected); err != nil {
		p.absorb(StagePersisted, fmt.Errorf("更新会话语言失败: %w", err))
	}

	// Responded
	result := &TurnResult{
		SessionID:        sessionID,
		Answer:           answer,
		DetectedLanguage: detected,
		OriginalMessage:  rawMessage,
		Translated:       translated,
		FailedStage:      failedStage,
	}
	if translated {
		result.TranslatedMessage = english
	}
	return result, nil
}

// absorb 按阶段策略处理错误：fail-open 阶段记录日志并继续，
// fail-fatal 阶段交还调用处做替补处理。err 为 nil 时始终继续。
func (p *Pipeline) absorb(stage Stage, err error) bool {
	if err == nil {
		return true
	}
	if stagePolicies[stage] == failOpen {
		log.Warnw("管道阶段失败，按 fail-open 继续", "stage", string(stage), "error", err)
		return true
	}
	return false
}

// workingHistory 把持久化消息重建为工作语言形态的对话历史：
// user 回合取已归一化的译文（若有），bot 回合取模型的英文原文。
// 顺序沿用存储中按时间戳升序的规范顺序。
func workingHistory(stored []model.ChatMessage) []llm.Message {
	history := make([]llm.Message, 0, len(stored))
	for _, msg := range stored {
		content := msg.Message
		if msg.Sender == model.SenderUser {
			if msg.IsTranslated && msg.TranslatedMessage != "" {
				content = msg.TranslatedMessage
			}
		} else if msg.OriginalMessage != "" {
			content = msg.OriginalMessage
		}
		history = append(history, llm.Message{Role: msg.Sender, Content: content})
	}
	return history
}

// defaultPersona 是内置的 AskiMate 人设，可被配置覆盖。
// 三个占位符依次是 grounding 上下文、学生问题、对话历史。
const defaultPersona = `You are AskiMate, a super friendly, cool, approachable AI assistant who helps students with everything about studying abroad—especially the UK and Europe.

**Behavior:**
- If users greet you ("hi", "hey", "hello"), thank you, ask how you are, wish you well (etc): respond naturally, warmly, and conversationally—just like a supportive friend would.
- If users express feelings (happy, sad, worried, excited): respond supportively, show empathy, and use casual, relatable, and uplifting language.
- For those general/introduction moments, it's okay to be informal, fun, or use emojis as long as it's kind and inclusive.
- For ALL other queries, base your answers entirely on the information given in Context (below), and if the information is not in the Context, say so politely.
- The conversation history (conversation session) is also placed below, if you do not find the answer from context then please check the conversation history.

**Important:**
- Never invent your own name or personal story—always use the name, details, and identity from Context.
- For questions not about studying abroad or about illegal/inappropriate topics, politely explain your area of expertise but stay friendly and open.
- You are allowed to answer general chit-chat and emotional/rapport-building messages as a real assistant would.
- Always check the chat history to find the relevant information of the session.

**Context for this conversation:**
%s

**Student's Question:**
%s

**Conversation history:**
%s

Respond in a friendly and engaging tone—as AskiMate!`

// buildSystemMessage 把 grounding 上下文、当前问题和历史渲染进人设文案。
// grounding 为空时占位为空字符串即可，composer 对空上下文同样工作。
func (p *Pipeline) buildSystemMessage(groundingText, question string, history []llm.Message) string {
	persona := p.llmCfg.Prompt.Persona
	if persona == "" {
		persona = defaultPersona
	}
	return fmt.Sprintf(persona, groundingText, question, renderHistory(history))
}

// renderHistory 以 "role: content" 的行形式渲染历史，供人设文案引用。
func renderHistory(history []llm.Message) string {
	if len(history) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// generationParams 取聊天回答的生成参数，零值回退到原平台的默认值。
func (p *Pipeline) generationParams() llm.GenerationParams {
	params := llm.GenerationParams{
		MaxGenLen:   p.llmCfg.Generation.MaxGenLen,
		Temperature: p.llmCfg.Generation.Temperature,
		TopP:        p.llmCfg.Generation.TopP,
	}
	if params.MaxGenLen == 0 {
		params.MaxGenLen = 500
	}
	if params.Temperature == 0 {
		params.Temperature = 0.7
	}
	if params.TopP == 0 {
		params.TopP = 0.9
	}
	return params
}
