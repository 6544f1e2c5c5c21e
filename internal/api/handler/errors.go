package handler

import (
	"context"
	"errors"

	"career-guide-go/internal/logger"
	"career-guide-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusFor 错误类型到 HTTP 状态码: 校验 400，未找到 404，向量化 502，其余 500
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrValidation):
		return consts.StatusBadRequest, "validation"
	case errors.Is(err, types.ErrNotFound):
		return consts.StatusNotFound, "not_found"
	case errors.Is(err, types.ErrEmbeddingFailed):
		return consts.StatusBadGateway, "embedding"
	case errors.Is(err, types.ErrDataInvalid):
		return consts.StatusInternalServerError, "data"
	default:
		return consts.StatusInternalServerError, "internal"
	}
}

func writeError(ctx context.Context, c *app.RequestContext, err error) {
	status, kind := StatusFor(err)
	if status >= consts.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Str("path", string(c.Path())).Msg("请求处理失败")
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func badRequest(c *app.RequestContext, msg string) {
	c.JSON(consts.StatusBadRequest, ErrorResponse{Error: msg, Kind: "validation"})
}
