// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/internal/pipeline"
	"github.com/vaahiiid/askimateplatform/internal/service"
	"github.com/vaahiiid/askimateplatform/pkg/log"
	"github.com/vaahiiid/askimateplatform/pkg/token"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理聊天回合请求（HTTP 与 WebSocket 两种传输）。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// TurnRequest 定义了聊天回合 API 的请求体结构。
// History 仅为兼容无状态客户端保留：会话存在时历史一律以存储为准。
type TurnRequest struct {
	SessionID string        `json:"session_id"`
	Message   string        `json:"message"`
	History   []HistoryItem `json:"history,omitempty"`
}

// HistoryItem 是请求体中单条历史消息的形状。
type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnResponse 定义了聊天回合 API 的响应信封。
type TurnResponse struct {
	SessionID        string  `json:"session_id"`
	Answer           string  `json:"answer"`
	DetectedLanguage string  `json:"detected_language"`
	OriginalMessage  string  `json:"original_message"`
	// TranslatedMessage 仅在检测语言不是英语时非空。
	TranslatedMessage *string `json:"translated_message"`
}

// Chat 处理一个 HTTP 聊天回合。
// 空消息返回 400 且不产生任何持久化；补全失败被吸收为道歉回复，状态仍为 200。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	user := c.MustGet("user").(*model.User)

	result, err := h.chatService.HandleTurn(c.Request.Context(), user, req.SessionID, req.Message)
	if err != nil {
		h.writeTurnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    toTurnResponse(result),
	})
}

func (h *ChatHandler) writeTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "消息不能为空",
		})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "会话不存在",
		})
	default:
		log.Error("处理聊天回合失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务暂时不可用，请稍后重试",
		})
	}
}

func toTurnResponse(result *pipeline.TurnResult) TurnResponse {
	resp := TurnResponse{
		SessionID:        result.SessionID,
		Answer:           result.Answer,
		DetectedLanguage: result.DetectedLanguage,
		OriginalMessage:  result.OriginalMessage,
	}
	if result.Translated {
		translated := result.TranslatedMessage
		resp.TranslatedMessage = &translated
	}
	return resp
}

// wsTurnRequest 是 WebSocket 传输上单条消息的形状。
type wsTurnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// HandleWebSocket 处理一个传入的 WebSocket 连接：
// 客户端逐条发送 {session_id, message}，收到与 HTTP 相同的回合信封。
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	user, err := h.userService.GetProfile(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)

	for {
		var req wsTurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		result, err := h.chatService.HandleTurn(c.Request.Context(), user, req.SessionID, req.Message)
		if err != nil {
			errMsg := "服务暂时不可用，请稍后重试"
			if errors.Is(err, pipeline.ErrEmptyMessage) {
				errMsg = "消息不能为空"
			} else if errors.Is(err, service.ErrSessionNotFound) {
				errMsg = "会话不存在"
			} else {
				log.Error("处理 WebSocket 聊天回合失败", err)
			}
			if err := conn.WriteJSON(gin.H{"error": errMsg}); err != nil {
				break
			}
			continue
		}

		if err := conn.WriteJSON(toTurnResponse(result)); err != nil {
			log.Warnf("向 WebSocket 写入响应失败: %v", err)
			break
		}
	}
}
