package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/internal/service"
	"github.com/vaahiiid/askimateplatform/pkg/log"
)

// SessionHandler 负责会话的创建、列表、消息查询与删除。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// sessionDTO 是会话在 API 上的展现形状。
type sessionDTO struct {
	SessionID    string          `json:"sessionId"`
	UserLanguage string          `json:"userLanguage"`
	CreatedAt    model.LocalTime `json:"createdAt"`
}

func toSessionDTO(s model.ConversationSession) sessionDTO {
	return sessionDTO{
		SessionID:    s.SessionID,
		UserLanguage: s.UserLanguage,
		CreatedAt:    model.LocalTime(s.CreatedAt),
	}
}

// Create 为当前用户新建一个会话。
func (h *SessionHandler) Create(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	session, err := h.sessionService.CreateSession(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("创建会话失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "创建会话失败",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "success",
		"data":    toSessionDTO(*session),
	})
}

// List 返回当前用户的全部会话，按创建时间倒序。
func (h *SessionHandler) List(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	sessions, err := h.sessionService.ListSessions(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("查询会话列表失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询会话列表失败",
		})
		return
	}

	dtos := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		dtos = append(dtos, toSessionDTO(s))
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    dtos,
	})
}

// Messages 返回指定会话的全部消息，按时间升序。
func (h *SessionHandler) Messages(c *gin.Context) {
	user := c.MustGet("user").(*model.User)
	sessionID := c.Param("sessionId")

	messages, err := h.sessionService.ListMessages(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "会话不存在",
			})
			return
		}
		log.Error("查询会话消息失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询会话消息失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    messages,
	})
}

// Delete 删除指定会话及其全部消息。
// 若启用了转写归档，删除前会将会话全文归档到对象存储。
func (h *SessionHandler) Delete(c *gin.Context) {
	user := c.MustGet("user").(*model.User)
	sessionID := c.Param("sessionId")

	if err := h.sessionService.DeleteSession(c.Request.Context(), user.ID, sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "会话不存在",
			})
			return
		}
		log.Error("删除会话失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "删除会话失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "会话已删除",
	})
}
