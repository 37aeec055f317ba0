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

package api

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	apihttp "chatbot-platform/internal/api/http"
	"chatbot-platform/internal/api/http/middleware"
	"chatbot-platform/internal/app"
	"chatbot-platform/internal/chat"
	"chatbot-platform/pkg/errors"
)

// otelProviderShutdown 用于优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用（装配聊天服务、HTTP Router、Handler、Middleware）
type App struct {
	bootstrap    *app.Bootstrap
	chatService  *chat.Service
	router       *apihttp.Router
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	if bootstrap == nil {
		return nil, errors.New("bootstrap 不能为空")
	}

	opts := chat.Options{
		Agents:        bootstrap.AgentStore,
		Conversations: bootstrap.ConvStore,
		Knowledge:     bootstrap.KnowledgeStore,
		Registry:      bootstrap.Models,
		Logger:        bootstrap.Logger,
	}
	if cfg := bootstrap.Config; cfg != nil {
		opts.RecentWindow = cfg.Pipeline.RecentWindow
		opts.SummaryTail = cfg.Pipeline.SummaryTail
		opts.SummaryMaxWords = cfg.Pipeline.SummaryMaxWords
		opts.RetrievalLimit = cfg.Pipeline.RetrievalLimit
		opts.GenerateTimeout = parseDuration(cfg.Pipeline.GenerateTimeout, 0)
	}
	chatService := chat.NewService(opts)

	handler := apihttp.NewHandler(chatService, bootstrap.AgentStore, bootstrap.KnowledgeStore, bootstrap.Logger)
	mw := middleware.NewMiddleware()
	if cfg := bootstrap.Config; cfg != nil && cfg.API.CORS.Enable {
		mw.SetAllowOrigins(cfg.API.CORS.AllowOrigins)
	}
	router := apihttp.NewRouter(handler, mw)

	if cfg := bootstrap.Config; cfg != nil && cfg.API.Middleware.Auth && cfg.API.Middleware.JWTKey != "" {
		timeout := parseDuration(cfg.API.Middleware.JWTTimeout, time.Hour)
		maxRefresh := parseDuration(cfg.API.Middleware.JWTMaxRefresh, time.Hour)
		jwtAuth, err := middleware.NewJWTAuth([]byte(cfg.API.Middleware.JWTKey), timeout, maxRefresh, middleware.AdminCredential{
			User:     cfg.API.Middleware.AdminUser,
			Password: cfg.API.Middleware.AdminPassword,
		})
		if err != nil {
			bootstrap.Logger.Warn("JWT 初始化失败，将跳过认证", "error", err)
		} else {
			router.SetJWT(jwtAuth)
			bootstrap.Logger.Info("JWT 认证已启用")
		}
	}

	return &App{
		bootstrap:   bootstrap,
		chatService: chatService,
		router:      router,
	}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 配置对齐
	output := os.Stdout
	if cfg := a.bootstrap.Config; cfg != nil && cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return errors.Wrap(err, "打开日志文件失败")
		}
		output = f
	}
	levelVar := &slog.LevelVar{}
	level := ""
	if cfg := a.bootstrap.Config; cfg != nil {
		level = cfg.Log.Level
	}
	switch level {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
	hertzLogger := hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	)
	hlog.SetLogger(hertzLogger)

	// 可选：启用链路追踪（OpenTelemetry）
	cfg := a.bootstrap.Config
	if cfg != nil && cfg.Monitoring.Tracing.Enable {
		serviceName := cfg.Monitoring.Tracing.ServiceName
		if serviceName == "" {
			serviceName = "chatbot-api"
		}
		exportEndpoint := cfg.Monitoring.Tracing.ExportEndpoint
		if exportEndpoint == "" {
			exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		if exportEndpoint != "" {
			opts := []provider.Option{
				provider.WithServiceName(serviceName),
				provider.WithExportEndpoint(exportEndpoint),
			}
			if cfg.Monitoring.Tracing.Insecure {
				opts = append(opts, provider.WithInsecure())
			}
			p := provider.NewOpenTelemetryProvider(opts...)
			a.otelProvider = p
			tracerOpt, tracerCfg := hertztracing.NewServerTracer()
			a.hertz = a.router.Build(addr, tracerOpt)
			a.hertz.Use(hertztracing.ServerMiddleware(tracerCfg))
			a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
		} else {
			a.hertz = a.router.Build(addr)
		}
	} else {
		a.hertz = a.router.Build(addr)
	}

	return a.hertz.Run()
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	a.bootstrap.Close()
	return nil
}

// parseDuration 解析时长字符串，无效或空时返回 defaultVal
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
