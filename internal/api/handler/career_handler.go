package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"career-guide-go/internal/constants"
	"career-guide-go/internal/logger"
	"career-guide-go/internal/parser"
	"career-guide-go/internal/processor"
	"career-guide-go/internal/report"
	"career-guide-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ProfileTextExtractor 从上传的 PDF 档案提取文本，由 parser.ProfileExtractor 实现
type ProfileTextExtractor interface {
	ExtractText(ctx context.Context, reader io.Reader, filename string) (string, error)
}

// ReportArchiver 报告归档，由 report.Archiver 实现
type ReportArchiver interface {
	Archive(ctx context.Context, r *report.Report) (*report.ArchiveResult, error)
}

// CareerHandler 推荐、目录查询与报告导出
type CareerHandler struct {
	recommender *processor.Recommender
	extractor   ProfileTextExtractor
	renderer    *report.Renderer
	archiver    ReportArchiver
}

// CareerHandlerOption 处理器选项
type CareerHandlerOption func(*CareerHandler)

// WithProfileExtractor 启用 PDF 档案上传
func WithProfileExtractor(e ProfileTextExtractor) CareerHandlerOption {
	return func(h *CareerHandler) {
		h.extractor = e
	}
}

// WithReportArchiver 启用报告归档
func WithReportArchiver(a ReportArchiver) CareerHandlerOption {
	return func(h *CareerHandler) {
		h.archiver = a
	}
}

func WithReportRenderer(r *report.Renderer) CareerHandlerOption {
	return func(h *CareerHandler) {
		h.renderer = r
	}
}

func NewCareerHandler(recommender *processor.Recommender, opts ...CareerHandlerOption) *CareerHandler {
	h := &CareerHandler{
		recommender: recommender,
		renderer:    report.NewRenderer(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string            `json:"status"`
	Catalog types.CatalogInfo `json:"catalog"`
}

// HandleHealth GET /api/v1/health
func (h *CareerHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, HealthResponse{Status: "ok", Catalog: h.recommender.Catalog().Info()})
}

// HandleRecommend POST /api/v1/recommend
func (h *CareerHandler) HandleRecommend(ctx context.Context, c *app.RequestContext) {
	var req types.RecommendationRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("请求体格式错误: %v", err))
		return
	}

	resp, err := h.recommender.Recommend(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleRecommendUpload POST /api/v1/recommend/upload (multipart: file, domain, level, top_n, min_confidence)
func (h *CareerHandler) HandleRecommendUpload(ctx context.Context, c *app.RequestContext) {
	if h.extractor == nil {
		c.JSON(consts.StatusNotImplemented, ErrorResponse{Error: "未启用档案上传", Kind: "internal"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "文件未找到")
		return
	}
	if fileHeader.Size > constants.MaxUploadSize {
		badRequest(c, fmt.Sprintf("文件大小超过 %d 字节上限", constants.MaxUploadSize))
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		badRequest(c, "仅支持 PDF 文件")
		return
	}

	req, err := requestFromForm(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(ctx, c, fmt.Errorf("打开文件失败: %w", err))
		return
	}
	defer file.Close()

	text, err := h.extractor.ExtractText(ctx, file, fileHeader.Filename)
	if err != nil {
		if errors.Is(err, parser.ErrEmptyProfile) {
			badRequest(c, err.Error())
			return
		}
		logger.Ctx(ctx).Warn().Err(err).Str("file", fileHeader.Filename).Msg("档案解析失败")
		badRequest(c, fmt.Sprintf("无法解析 PDF: %v", err))
		return
	}
	req.Text = text

	resp, err := h.recommender.Recommend(ctx, *req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// requestFromForm 读取上传表单中的可选过滤参数
func requestFromForm(c *app.RequestContext) (*types.RecommendationRequest, error) {
	req := &types.RecommendationRequest{}
	if v := c.PostForm("domain"); v != "" {
		req.Domain = &v
	}
	if v := c.PostForm("level"); v != "" {
		req.Level = &v
	}
	if v := c.PostForm("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("top_n 必须是整数: %q", v)
		}
		req.TopN = &n
	}
	if v := c.PostForm("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("min_confidence 必须是数字: %q", v)
		}
		req.MinConfidence = &f
	}
	return req, nil
}

// HandleDomains GET /api/v1/domains
func (h *CareerHandler) HandleDomains(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.recommender.Catalog().Domains())
}

// HandleLevels GET /api/v1/levels
func (h *CareerHandler) HandleLevels(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.recommender.Catalog().Levels())
}

// CareerListResponse 目录导出
type CareerListResponse struct {
	Careers []*types.CareerRecord `json:"careers"`
	Count   int                   `json:"count"`
}

// HandleCareers GET /api/v1/careers
func (h *CareerHandler) HandleCareers(ctx context.Context, c *app.RequestContext) {
	records := h.recommender.Catalog().Records()
	c.JSON(consts.StatusOK, CareerListResponse{Careers: records, Count: len(records)})
}

// HandleInsight GET /api/v1/careers/:title/insight?text=...
func (h *CareerHandler) HandleInsight(ctx context.Context, c *app.RequestContext) {
	title := c.Param("title")
	in, err := h.recommender.Insight(ctx, title, c.Query("text"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, in)
}

// HandleReport POST /api/v1/report[?archive=true]
// 默认直接返回 PDF 附件；archive=true 且配置了对象存储时返回预签名下载链接
func (h *CareerHandler) HandleReport(ctx context.Context, c *app.RequestContext) {
	var req types.RecommendationRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("请求体格式错误: %v", err))
		return
	}
	archive := c.Query("archive") == "true"
	if archive && h.archiver == nil {
		badRequest(c, "未配置报告归档存储")
		return
	}

	resp, err := h.recommender.Recommend(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	rep, err := h.renderer.Render(resp.Results)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	if archive {
		res, err := h.archiver.Archive(ctx, rep)
		if err != nil {
			writeError(ctx, c, err)
			return
		}
		c.JSON(consts.StatusOK, res)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rep.Filename))
	c.Data(consts.StatusOK, constants.ReportContentType, rep.Data)
}
