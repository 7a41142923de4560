package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/internal/repository"
	"github.com/vaahiiid/askimateplatform/pkg/log"
	"github.com/vaahiiid/askimateplatform/pkg/storage"
	"gorm.io/gorm"
)

// SessionService 定义了会话管理的业务操作。
type SessionService interface {
	CreateSession(ctx context.Context, userID uint) (*model.ConversationSession, error)
	ListSessions(ctx context.Context, userID uint) ([]model.ConversationSession, error)
	ListMessages(ctx context.Context, userID uint, sessionID string) ([]model.ChatMessage, error)
	DeleteSession(ctx context.Context, userID uint, sessionID string) error
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	minioCfg    config.MinIOConfig
	archiving   bool
}

// NewSessionService 创建一个新的 SessionService 实例。
// archiving 指示 MinIO 是否可用；不可用时删除会话不做转写归档。
func NewSessionService(sessionRepo repository.SessionRepository, minioCfg config.MinIOConfig, archiving bool) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		minioCfg:    minioCfg,
		archiving:   archiving,
	}
}

// CreateSession 显式为用户创建一个新会话。
func (s *sessionService) CreateSession(ctx context.Context, userID uint) (*model.ConversationSession, error) {
	return s.sessionRepo.CreateSession(ctx, userID)
}

// ListSessions 列出用户的全部会话。
func (s *sessionService) ListSessions(ctx context.Context, userID uint) ([]model.ConversationSession, error) {
	return s.sessionRepo.ListSessions(ctx, userID)
}

// ListMessages 列出用户某个会话的全部消息（按时间升序）。
func (s *sessionService) ListMessages(ctx context.Context, userID uint, sessionID string) ([]model.ChatMessage, error) {
	if _, err := s.sessionRepo.FindSession(ctx, userID, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.sessionRepo.ListMessages(ctx, sessionID)
}

// DeleteSession 删除用户的会话：先把完整转写归档到对象存储，再级联删除。
// 归档失败只记录日志，不阻塞删除（归档是运维便利，不是删除的前置条件）。
func (s *sessionService) DeleteSession(ctx context.Context, userID uint, sessionID string) error {
	if _, err := s.sessionRepo.FindSession(ctx, userID, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	if s.archiving {
		messages, err := s.sessionRepo.ListMessages(ctx, sessionID)
		if err != nil {
			log.Warnw("读取会话消息用于归档失败", "sessionId", sessionID, "error", err)
		} else if len(messages) > 0 {
			payload, err := json.Marshal(messages)
			if err == nil {
				if err := storage.ArchiveTranscript(ctx, s.minioCfg.BucketName, sessionID, payload); err != nil {
					log.Warnw("会话转写归档失败", "sessionId", sessionID, "error", err)
				}
			}
		}
	}

	return s.sessionRepo.DeleteSession(ctx, userID, sessionID)
}
