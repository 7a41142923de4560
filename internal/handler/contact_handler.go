package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaahiiid/askimateplatform/internal/service"
	"github.com/vaahiiid/askimateplatform/pkg/log"
)

// ContactHandler 负责等待名单报名和联系表单两个公开接口。
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler 创建一个新的 ContactHandler。
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// WaitlistRequest 定义了等待名单报名的请求体结构。
type WaitlistRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// JoinWaitlist 处理等待名单报名请求。重复报名返回 409。
func (h *ContactHandler) JoinWaitlist(c *gin.Context) {
	var req WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求参数",
		})
		return
	}

	if err := h.contactService.JoinWaitlist(req.FullName, req.Email); err != nil {
		if errors.Is(err, service.ErrAlreadyJoined) {
			c.JSON(http.StatusConflict, gin.H{
				"code":    http.StatusConflict,
				"message": "该邮箱已在等待名单中",
			})
			return
		}
		log.Error("等待名单报名失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "报名失败，请稍后重试",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "报名成功",
	})
}

// ContactRequest 定义了联系表单的请求体结构。
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// SubmitContact 处理联系表单提交请求。
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求参数",
		})
		return
	}

	if err := h.contactService.SubmitContactForm(req.Name, req.Email, req.Message); err != nil {
		log.Error("联系表单提交失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "提交失败，请稍后重试",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "提交成功",
	})
}
