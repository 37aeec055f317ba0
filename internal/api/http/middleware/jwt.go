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

package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"
)

const identityKey = "identity"

// AdminCredential 管理端静态凭证
type AdminCredential struct {
	User     string
	Password string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewJWTAuth 创建管理端 JWT 认证中间件。/api/admin/login 换取 token，
// 其余管理路由经 MiddlewareFunc 校验。
func NewJWTAuth(key []byte, timeout, maxRefresh time.Duration, cred AdminCredential) (*jwt.HertzJWTMiddleware, error) {
	return jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "chatbot admin",
		Key:         key,
		Timeout:     timeout,
		MaxRefresh:  maxRefresh,
		IdentityKey: identityKey,
		Authenticator: func(ctx context.Context, c *app.RequestContext) (interface{}, error) {
			var req loginRequest
			if err := c.BindJSON(&req); err != nil {
				return nil, jwt.ErrMissingLoginValues
			}
			if req.Username == "" || req.Username != cred.User || req.Password != cred.Password {
				return nil, jwt.ErrFailedAuthentication
			}
			return req.Username, nil
		},
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if name, ok := data.(string); ok {
				return jwt.MapClaims{identityKey: name}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			return claims[identityKey]
		},
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]interface{}{
				"code":  code,
				"error": message,
			})
		},
		TokenLookup: "header: Authorization",
		TimeFunc:    time.Now,
	})
}
