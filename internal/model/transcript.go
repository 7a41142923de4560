package model

// TranscriptDocument 是写入 Elasticsearch 'chat_transcripts' 索引的文档结构，
// 一条文档对应一次完整的问答回合。
type TranscriptDocument struct {
	EventID   string `json:"event_id"`
	SessionID string `json:"session_id"`
	UserID    uint   `json:"user_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Language  string `json:"language"`
	Timestamp string `json:"timestamp"`
}
