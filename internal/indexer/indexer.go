// Package indexer 消费回合索引任务并写入转写索引。
package indexer

import (
	"context"
	"time"

	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/pkg/es"
	"github.com/vaahiiid/askimateplatform/pkg/log"
	"github.com/vaahiiid/askimateplatform/pkg/tasks"
)

// Indexer 实现 kafka.TaskProcessor，把问答回合写入 Elasticsearch。
type Indexer struct {
	esCfg config.ElasticsearchConfig
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(esCfg config.ElasticsearchConfig) *Indexer {
	return &Indexer{esCfg: esCfg}
}

// Process 将单个回合任务转换为转写文档并索引。
func (i *Indexer) Process(ctx context.Context, task tasks.TurnIndexTask) error {
	doc := model.TranscriptDocument{
		EventID:   task.EventID,
		SessionID: task.SessionID,
		UserID:    task.UserID,
		Question:  task.Question,
		Answer:    task.Answer,
		Language:  task.Language,
		Timestamp: task.Timestamp.UTC().Format(time.RFC3339),
	}

	if err := es.IndexTranscript(ctx, i.esCfg.IndexName, doc); err != nil {
		return err
	}

	log.Infof("回合转写已索引: EventID=%s, SessionID=%s", task.EventID, task.SessionID)
	return nil
}
