package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

// ErrEmptyProfile PDF 中没有可提取的文本（例如扫描件）
var ErrEmptyProfile = fmt.Errorf("PDF 中未提取到文本")

// ProfileExtractor 使用 Eino PDF Parser 从上传的简历/档案 PDF 中提取纯文本
type ProfileExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
	logger  zerolog.Logger
}

// ProfileExtractorOption 提取器配置选项
type ProfileExtractorOption func(*ProfileExtractor)

// WithExtractorLogger 设置日志实例
func WithExtractorLogger(l zerolog.Logger) ProfileExtractorOption {
	return func(e *ProfileExtractor) {
		e.logger = l
	}
}

// WithExtractTimeout 设置单次解析超时
func WithExtractTimeout(d time.Duration) ProfileExtractorOption {
	return func(e *ProfileExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewProfileExtractor 初始化提取器，不按页面分割以获取整份文档的连续文本
func NewProfileExtractor(ctx context.Context, opts ...ProfileExtractorOption) (*ProfileExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	e := &ProfileExtractor{
		parser:  p,
		timeout: 30 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExtractText 从 reader 中提取 PDF 文本，空白折叠后返回
func (e *ProfileExtractor) ExtractText(ctx context.Context, reader io.Reader, filename string) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(filename),
		einoParser.WithExtraMeta(map[string]any{
			"source_file": filename,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("eino PDF parser failed for %s: %w", filename, err)
	}

	var sb strings.Builder
	for _, doc := range docs {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(doc.Content)
	}
	text := strings.Join(strings.Fields(sb.String()), " ")
	if text == "" {
		return "", ErrEmptyProfile
	}

	e.logger.Info().
		Str("file", filename).
		Int("documents", len(docs)).
		Int("text_length", len(text)).
		Dur("latency", time.Since(start)).
		Msg("PDF文本提取完成")
	return text, nil
}

// ExtractTextFromBytes 从字节数组提取文本
func (e *ProfileExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, filename string) (string, error) {
	return e.ExtractText(ctx, bytes.NewReader(data), filename)
}
