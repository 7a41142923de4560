package service

import (
	"context"

	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/pkg/es"
)

// AdminService 定义了管理员视角的业务操作。
type AdminService interface {
	// SearchTranscripts 在已索引的问答转写中做全文检索。
	SearchTranscripts(ctx context.Context, query string, size int) ([]model.TranscriptDocument, error)
}

type adminService struct {
	esCfg config.ElasticsearchConfig
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(esCfg config.ElasticsearchConfig) AdminService {
	return &adminService{esCfg: esCfg}
}

func (s *adminService) SearchTranscripts(ctx context.Context, query string, size int) ([]model.TranscriptDocument, error) {
	return es.SearchTranscripts(ctx, s.esCfg.IndexName, query, size)
}
