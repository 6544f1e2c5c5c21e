package router

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"career-guide-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	"github.com/rs/zerolog"
)

// HeaderRequestID 请求 ID 头，客户端传入时沿用
const HeaderRequestID = "X-Request-ID"

var errInvalidAPIKey = errors.New("API key 无效")

// Options 路由选项
type Options struct {
	// APIKeys 非空时 /api/v1 下除健康检查外的接口需要 Authorization: Bearer <key>
	APIKeys []string
	Logger  zerolog.Logger
}

// RequestLogger 为每个请求分配 ID，将带 request_id 的日志放入上下文，并记录访问日志
func RequestLogger(base zerolog.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		requestID := string(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		l := base.With().Str("request_id", requestID).Logger()
		ctx = l.WithContext(ctx)

		c.Next(ctx)

		status := c.Response.StatusCode()
		event := l.Info()
		if status >= consts.StatusInternalServerError {
			event = l.Error()
		} else if status >= consts.StatusBadRequest {
			event = l.Warn()
		}
		event.
			Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP请求")
	}
}

// APIKeyAuth 校验 Bearer API key
func APIKeyAuth(keys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, errInvalidAPIKey
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, handler.ErrorResponse{Error: err.Error(), Kind: "unauthorized"})
		}),
	)
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, career *handler.CareerHandler, bookmarks *handler.BookmarkHandler, opts Options) {
	h.Use(RequestLogger(opts.Logger))

	// 健康检查不需要鉴权
	h.GET("/api/v1/health", career.HandleHealth)

	var mws []app.HandlerFunc
	if len(opts.APIKeys) > 0 {
		mws = append(mws, APIKeyAuth(opts.APIKeys))
	}
	api := h.Group("/api/v1", mws...)

	api.POST("/recommend", career.HandleRecommend)
	api.POST("/recommend/upload", career.HandleRecommendUpload)
	api.POST("/report", career.HandleReport)

	api.GET("/domains", career.HandleDomains)
	api.GET("/levels", career.HandleLevels)
	api.GET("/careers", career.HandleCareers)
	api.GET("/careers/:title/insight", career.HandleInsight)

	if bookmarks != nil {
		api.POST("/sessions", bookmarks.HandleCreateSession)
		api.GET("/sessions/:session_id/bookmarks", bookmarks.HandleListBookmarks)
		api.DELETE("/sessions/:session_id/bookmarks", bookmarks.HandleClearBookmarks)
		api.POST("/sessions/:session_id/bookmarks/:title", bookmarks.HandleToggleBookmark)
		api.PUT("/sessions/:session_id/bookmarks/:title", bookmarks.HandleAddBookmark)
		api.DELETE("/sessions/:session_id/bookmarks/:title", bookmarks.HandleRemoveBookmark)
	}
}
