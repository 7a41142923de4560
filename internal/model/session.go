package model

import "time"

// 语言标签的哨兵值。持久化和对外暴露的语言永远是人类可读的
// 语言名称（如 "Persian"），或这两个哨兵，绝不直接透出 locale 代码。
const (
	LanguageEnglish = "English"
	LanguageUnknown = "Unknown"
)

// 消息发送方的封闭集合。
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ConversationSession 对应于数据库中的 'conversation_sessions' 表。
// 会话归属唯一用户；删除会话时级联删除其全部消息。
type ConversationSession struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// SessionID 是对外暴露的不透明唯一标识（UUID 字符串）。
	SessionID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"sessionId"`
	// UserID 是会话的归属用户。
	UserID uint `gorm:"index;not null" json:"userId"`
	// UserLanguage 记录最近一次检测到的用户语言，按回合更新；
	// 这是会话上唯一可变的字段。
	UserLanguage string `gorm:"type:varchar(50);not null;default:'English'" json:"userLanguage"`
	// CreatedAt 由 GORM 自动管理，记录创建时间。
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ConversationSession) TableName() string {
	return "conversation_sessions"
}

// ChatMessage 对应于数据库中的 'chat_messages' 表，是会话内一条消息的持久化记录。
// 一次问答回合会产生两条相互独立的记录（user 和 bot），而不是一个回合对象。
// 同一会话内的消息按 Timestamp 严格递增排序，该顺序即规范的会话历史。
type ChatMessage struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// SessionID 指向归属会话的 SessionID。
	SessionID string `gorm:"type:varchar(36);index;not null" json:"sessionId"`
	// Sender 为 "user" 或 "bot"。
	Sender string `gorm:"type:varchar(16);not null" json:"sender"`
	// Message 是最终展示给用户的文本，即用户语言下的文本。
	Message string `gorm:"type:text;not null" json:"message"`
	// DetectedLanguage 是该回合检测到的语言名称，解析前为 "Unknown"。
	DetectedLanguage string `gorm:"type:varchar(50)" json:"detectedLanguage"`
	// OriginalMessage 是翻译前的原文（用户原始输入，或模型的英文回答）。
	OriginalMessage string `gorm:"type:text" json:"originalMessage"`
	// TranslatedMessage 是翻译后的文本，未发生翻译时为空。
	TranslatedMessage string `gorm:"type:text" json:"translatedMessage,omitempty"`
	// IsTranslated 标记该回合是否发生了翻译。
	IsTranslated bool `gorm:"not null;default:false" json:"isTranslated"`
	// Timestamp 在创建时写入，之后不可变。
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatMessage) TableName() string {
	return "chat_messages"
}
