// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Intent        IntentConfig        `mapstructure:"intent"`
	Detector      DetectorConfig      `mapstructure:"detector"`
	Mail          MailConfig          `mapstructure:"mail"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// LLMConfig 存储生成模型服务相关的配置。
type LLMConfig struct {
	BaseURL        string              `mapstructure:"base_url"`
	APIKey         string              `mapstructure:"api_key"`
	ModelID        string              `mapstructure:"model_id"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	Generation     LLMGenerationConfig `mapstructure:"generation"`
	Prompt         LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig 配置聊天回答的生成参数（可选，零值时使用内置默认）。
type LLMGenerationConfig struct {
	MaxGenLen   int     `mapstructure:"max_gen_len"`
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
}

// LLMPromptConfig 配置系统人设文案（可选，为空时使用内置的 AskiMate 人设）。
type LLMPromptConfig struct {
	Persona string `mapstructure:"persona"`
}

// IntentConfig 存储意图识别/检索引擎（Rasa REST webhook）的配置。
type IntentConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DetectorConfig 存储语言检测策略的配置。
// Strategy 可选 "statistical"（本地统计检测）或 "llm"（调用生成模型检测）。
type DetectorConfig struct {
	Strategy       string `mapstructure:"strategy"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// MailConfig 存储 SMTP 邮件发送的配置。
type MailConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	From             string `mapstructure:"from"`
	ContactRecipient string `mapstructure:"contact_recipient"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
