// Package tasks 定义了通过消息队列流转的后台任务结构。
package tasks

import "time"

// TurnIndexTask 是一次已持久化的问答回合产生的索引任务，
// 由后台消费者写入 Elasticsearch 的转写索引。
type TurnIndexTask struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	UserID    uint      `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}
