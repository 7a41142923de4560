package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/internal/pipeline"
	"github.com/vaahiiid/askimateplatform/internal/repository"
	"github.com/vaahiiid/askimateplatform/pkg/kafka"
	"github.com/vaahiiid/askimateplatform/pkg/log"
	"github.com/vaahiiid/askimateplatform/pkg/tasks"
	"gorm.io/gorm"
)

// ErrSessionNotFound 表示会话不存在或不属于当前用户。
var ErrSessionNotFound = errors.New("session not found")

// ChatService 定义了聊天回合的业务入口。
type ChatService interface {
	// HandleTurn 处理用户的一个聊天回合并返回统一响应信封。
	// sessionID 为空时为该用户创建新会话（首次聊天即建会话）。
	HandleTurn(ctx context.Context, user *model.User, sessionID, message string) (*pipeline.TurnResult, error)
}

type chatService struct {
	sessionRepo repository.SessionRepository
	turns       *pipeline.Pipeline
	eventsReady bool
}

// NewChatService 创建一个新的 ChatService 实例。
// eventsReady 指示 Kafka 生产者是否可用；不可用时跳过回合事件的发布。
func NewChatService(sessionRepo repository.SessionRepository, turns *pipeline.Pipeline, eventsReady bool) ChatService {
	return &chatService{
		sessionRepo: sessionRepo,
		turns:       turns,
		eventsReady: eventsReady,
	}
}

// HandleTurn 解析会话归属后把回合交给管道，成功后发布索引事件。
func (s *chatService) HandleTurn(ctx context.Context, user *model.User, sessionID, message string) (*pipeline.TurnResult, error) {
	var session *model.ConversationSession
	var err error

	if sessionID == "" {
		session, err = s.sessionRepo.CreateSession(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	} else {
		session, err = s.sessionRepo.FindSession(ctx, user.ID, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
	}

	result, err := s.turns.Run(ctx, session.SessionID, message)
	if err != nil {
		return nil, err
	}

	// 回合事件只用于后台转写索引，发布失败不影响响应
	if s.eventsReady {
		task := tasks.TurnIndexTask{
			EventID:   uuid.NewString(),
			SessionID: session.SessionID,
			UserID:    user.ID,
			Question:  result.OriginalMessage,
			Answer:    result.Answer,
			Language:  result.DetectedLanguage,
			Timestamp: time.Now(),
		}
		if err := kafka.ProduceTurnTask(task); err != nil {
			log.Warnw("发布回合索引事件失败", "sessionId", session.SessionID, "error", err)
		}
	}

	return result, nil
}
