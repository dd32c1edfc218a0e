package router

import (
	"context"
	"crypto/subtle"
	"math"
	"strconv"

	"github.com/Saking-tech/Resume-parser/internal/api/handler"
	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/pkg/ratelimit"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由。解析接口同时挂在 /api/v1 和根路径下
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, cfg *config.Config) {
	h.GET("/", resumeHandler.Root)
	h.GET("/health", resumeHandler.Health)

	var mws []app.HandlerFunc
	if len(cfg.Server.APIKeys) > 0 {
		mws = append(mws, APIKeyAuth(cfg.Server.APIKeys))
	}
	if cfg.Server.RateLimitQPM > 0 {
		mws = append(mws, RateLimit(ratelimit.NewTokenBucket(cfg.Server.RateLimitQPM, cfg.Server.RateLimitBurst)))
	}

	api := h.Group("/api/v1")
	api.GET("/health", resumeHandler.Health)

	parse := chain(mws, resumeHandler.ParseResume)
	batch := chain(mws, resumeHandler.ParseResumeBatch)
	api.POST("/parse-resume", parse...)
	api.POST("/parse-resume-batch", batch...)
	api.GET("/resumes/:submission_uuid", chain(mws, resumeHandler.GetResume)...)
	h.POST("/parse-resume", parse...)
	h.POST("/parse-resume-batch", batch...)
}

func chain(mws []app.HandlerFunc, h app.HandlerFunc) []app.HandlerFunc {
	out := make([]app.HandlerFunc, 0, len(mws)+1)
	return append(append(out, mws...), h)
}

// APIKeyAuth 校验 Authorization: Bearer <key>
func APIKeyAuth(keys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{
				"status":  "error",
				"message": "Invalid or missing API key",
			})
		}),
	)
}

// RateLimit 令牌桶耗尽时返回 429 并给出 Retry-After
func RateLimit(tb *ratelimit.TokenBucket) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		ok, wait := tb.Reserve()
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{
				"status":  "error",
				"message": "Too many requests",
			})
			return
		}
		c.Next(ctx)
	}
}
