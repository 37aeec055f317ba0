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

package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/hertz-contrib/jwt"

	"chatbot-platform/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
	jwtAuth    *jwt.HertzJWTMiddleware
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: mw,
	}
}

// SetJWT 启用管理端 JWT 认证
func (r *Router) SetJWT(auth *jwt.HertzJWTMiddleware) {
	r.jwtAuth = auth
}

// Build 构建 Hertz server 并注册全部路由
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append(opts, server.WithHostPorts(addr))
	h := server.Default(opts...)

	h.GET("/health", r.handler.HealthCheck)
	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api", r.middleware.CORS())

	// 挂件与会话入口（匿名，无认证）
	api.POST("/session/start", r.handler.StartSession)
	api.GET("/session/:session_id/history", r.handler.SessionHistory)
	api.POST("/widget/:widget_id/chat", r.handler.WidgetChat)
	api.POST("/chat", r.handler.Chat)

	// 管理端
	admin := api.Group("/admin")
	if r.jwtAuth != nil {
		admin.POST("/login", r.jwtAuth.LoginHandler)
		admin.GET("/refresh_token", r.jwtAuth.RefreshHandler)
		admin.Use(r.jwtAuth.MiddlewareFunc())
	}
	admin.POST("/agents", r.handler.CreateAgent)
	admin.GET("/agents", r.handler.ListAgents)
	admin.GET("/agents/:id", r.handler.GetAgent)
	admin.PUT("/agents/:id", r.handler.UpdateAgent)
	admin.DELETE("/agents/:id", r.handler.DeleteAgent)
	admin.POST("/agents/:id/knowledge/upload", r.handler.UploadKnowledge)
	admin.POST("/agents/:id/knowledge", r.handler.PutKnowledge)
	admin.GET("/agents/:id/knowledge", r.handler.ListKnowledge)
	admin.DELETE("/agents/:id/knowledge/:item_id", r.handler.DeleteKnowledge)
	admin.GET("/agents/:id/conversations", r.handler.ListConversations)
	admin.GET("/agents/:id/conversations/:session_id", r.handler.ConversationHistory)

	return h
}
