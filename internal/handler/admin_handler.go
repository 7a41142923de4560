package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vaahiiid/askimateplatform/internal/service"
	"github.com/vaahiiid/askimateplatform/pkg/log"
)

// AdminHandler 负责管理员专用的接口。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// SearchTranscripts 在已索引的会话转写中做全文搜索。
// 查询参数: q (必填), size (可选，默认 10，上限 100)。
func (h *AdminHandler) SearchTranscripts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "查询参数 q 不能为空",
		})
		return
	}

	size := 10
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "查询参数 size 无效",
			})
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		size = parsed
	}

	docs, err := h.adminService.SearchTranscripts(c.Request.Context(), query, size)
	if err != nil {
		log.Error("搜索会话转写失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "搜索失败，请稍后重试",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    docs,
	})
}
