package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"gorm.io/gorm"
)

// SessionRepository 定义了会话与消息的持久化操作。
// 消息按时间戳升序即是规范的会话历史；追加只增不改。
type SessionRepository interface {
	CreateSession(ctx context.Context, userID uint) (*model.ConversationSession, error)
	FindSession(ctx context.Context, userID uint, sessionID string) (*model.ConversationSession, error)
	ListSessions(ctx context.Context, userID uint) ([]model.ConversationSession, error)
	DeleteSession(ctx context.Context, userID uint, sessionID string) error
	ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)

	// 以下三个方法构成回合管道依赖的 ConversationStore 契约。
	History(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	AppendTurn(ctx context.Context, userMsg, botMsg *model.ChatMessage) error
	UpdateSessionLanguage(ctx context.Context, sessionID, language string) error
}

// sessionRepository 是 SessionRepository 接口的 GORM 实现。
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// CreateSession 为用户创建一个新会话，语言默认为英语。
func (r *sessionRepository) CreateSession(ctx context.Context, userID uint) (*model.ConversationSession, error) {
	session := &model.ConversationSession{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		UserLanguage: model.LanguageEnglish,
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}
	return session, nil
}

// FindSession 查找归属于指定用户的会话；不存在或不属于该用户时返回 gorm.ErrRecordNotFound。
func (r *sessionRepository) FindSession(ctx context.Context, userID uint, sessionID string) (*model.ConversationSession, error) {
	var session model.ConversationSession
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions 按创建时间倒序列出用户的所有会话。
func (r *sessionRepository) ListSessions(ctx context.Context, userID uint) ([]model.ConversationSession, error) {
	var sessions []model.ConversationSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// DeleteSession 删除会话并级联删除其全部消息，在一个事务中完成。
func (r *sessionRepository) DeleteSession(ctx context.Context, userID uint, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.ConversationSession
		if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("删除会话消息失败: %w", err)
		}
		if err := tx.Delete(&session).Error; err != nil {
			return fmt.Errorf("删除会话失败: %w", err)
		}
		return nil
	})
}

// ListMessages 按时间戳升序列出会话内全部消息。
func (r *sessionRepository) ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// History 是 ListMessages 的管道视图：每个回合都现读，不做缓存。
func (r *sessionRepository) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return r.ListMessages(ctx, sessionID)
}

// AppendTurn 追加一个回合的两条消息（user 先于 bot）。
// 两条追加相互独立，不要求多记录事务；重试可能产生重复消息，属已接受的限制。
func (r *sessionRepository) AppendTurn(ctx context.Context, userMsg, botMsg *model.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(userMsg).Error; err != nil {
		return fmt.Errorf("追加用户消息失败: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(botMsg).Error; err != nil {
		return fmt.Errorf("追加机器人消息失败: %w", err)
	}
	return nil
}

// UpdateSessionLanguage 仅当语言确实变化时更新会话的用户语言。
func (r *sessionRepository) UpdateSessionLanguage(ctx context.Context, sessionID, language string) error {
	return r.db.WithContext(ctx).
		Model(&model.ConversationSession{}).
		Where("session_id = ? AND user_language <> ?", sessionID, language).
		Update("user_language", language).Error
}
