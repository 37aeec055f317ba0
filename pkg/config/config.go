// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port       int              `mapstructure:"port"`
	Host       string           `mapstructure:"host"`
	Timeout    string           `mapstructure:"timeout"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// MiddlewareConfig 中间件配置（管理端 JWT 认证）
type MiddlewareConfig struct {
	Auth          bool   `mapstructure:"auth"`
	JWTKey        string `mapstructure:"jwt_key"`
	JWTTimeout    string `mapstructure:"jwt_timeout"`     // 如 "1h"
	JWTMaxRefresh string `mapstructure:"jwt_max_refresh"` // 如 "1h"
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassword string `mapstructure:"admin_password"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// LLMConfig LLM 模型配置
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	APIKey       string               `mapstructure:"api_key"`
	APIKeySecret string               `mapstructure:"api_key_secret"` // secrets 存储中的键名，优先于 api_key
	BaseURL      string               `mapstructure:"base_url"`
	Models       map[string]ModelInfo `mapstructure:"models"`
}

// ModelInfo 模型信息
type ModelInfo struct {
	Name          string  `mapstructure:"name"`
	ContextWindow int     `mapstructure:"context_window"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
}

// DefaultsConfig 默认模型配置，如 "groq.llama_31_8b"
type DefaultsConfig struct {
	LLM string `mapstructure:"llm"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Conversation ConversationStoreConfig `mapstructure:"conversation"`
	Knowledge    KnowledgeStoreConfig    `mapstructure:"knowledge"`
	Agent        AgentStoreConfig        `mapstructure:"agent"`
}

// ConversationStoreConfig 对话存储配置（消息日志 + 长期摘要）
type ConversationStoreConfig struct {
	Type     string `mapstructure:"type"` // memory | postgres | redis
	DSN      string `mapstructure:"dsn"`  // Postgres 连接串，type=postgres 时必填
	Addr     string `mapstructure:"addr"` // Redis 地址，type=redis 时必填
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// KnowledgeStoreConfig 知识库存储配置
type KnowledgeStoreConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`
}

// AgentStoreConfig Agent 配置存储
type AgentStoreConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`
}

// PipelineConfig Memory pipeline 参数
type PipelineConfig struct {
	RecentWindow    int    `mapstructure:"recent_window"`    // 每次运行取的最近消息条数，默认 20
	SummaryTail     int    `mapstructure:"summary_tail"`     // 摘要尾窗口条数，默认 8
	RetrievalLimit  int    `mapstructure:"retrieval_limit"`  // 检索返回上限，默认 5
	SummaryMaxWords int    `mapstructure:"summary_max_words"` // 摘要词数预算，默认 200
	GenerateTimeout string `mapstructure:"generate_timeout"` // 生成调用超时，如 "30s"
}

// RateLimitsConfig 限流配置（LLM Provider 维度）
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// SecretsConfig Secret 存储配置
type SecretsConfig struct {
	Provider string            `mapstructure:"provider"` // env | memory | vault
	Config   map[string]string `mapstructure:"config"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
	Port   int  `mapstructure:"port"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetEnvPrefix("CHATBOT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := replaceEnvVars(&config); err != nil {
		return nil, err
	}
	applyDefaults(&config)

	return &config, nil
}

// LoadAPIConfig 加载 API 配置（configs/api.yaml）
func LoadAPIConfig() (*Config, error) {
	return LoadConfig("configs/api.yaml")
}

// replaceEnvVars 替换配置中 ${VAR} 形式的模型 API Key
func replaceEnvVars(config *Config) error {
	for provider, providerConfig := range config.Model.LLM.Providers {
		if strings.HasPrefix(providerConfig.APIKey, "$") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(providerConfig.APIKey, "}"), "${")
			if val := os.Getenv(envVar); val != "" {
				providerConfig.APIKey = val
				config.Model.LLM.Providers[provider] = providerConfig
			}
		}
	}
	return nil
}

// applyDefaults 填充 pipeline 等缺省值
func applyDefaults(config *Config) {
	if config.Pipeline.RecentWindow <= 0 {
		config.Pipeline.RecentWindow = 20
	}
	if config.Pipeline.SummaryTail <= 0 {
		config.Pipeline.SummaryTail = 8
	}
	if config.Pipeline.RetrievalLimit <= 0 {
		config.Pipeline.RetrievalLimit = 5
	}
	if config.Pipeline.SummaryMaxWords <= 0 {
		config.Pipeline.SummaryMaxWords = 200
	}
	if config.Pipeline.GenerateTimeout == "" {
		config.Pipeline.GenerateTimeout = "30s"
	}
	if config.API.Port <= 0 {
		config.API.Port = 8080
	}
}
