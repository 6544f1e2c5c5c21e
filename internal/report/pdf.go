// Package report 将推荐结果渲染为 PDF，并可选归档到对象存储。
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"career-guide-go/internal/constants"
	"career-guide-go/internal/types"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

const (
	reportTitle = "Career Path Recommendations"

	fontFamily   = "Helvetica"
	titleSize    = 24
	heading2Size = 16
	heading3Size = 12
	bodySize     = 11
	lineHeight   = 6
)

// Report 渲染完成的 PDF，ID 每次渲染唯一
type Report struct {
	ID          string
	Filename    string
	GeneratedAt time.Time
	Data        []byte
}

// Filename career_recommendations_YYYYmmdd_HHMMSS.pdf
func Filename(t time.Time) string {
	return constants.ReportFilePrefix + t.Format(constants.ReportTimestampLayout) + ".pdf"
}

// Renderer PDF 渲染器，无状态，可并发使用
type Renderer struct {
	now func() time.Time
}

// RendererOption 渲染器选项
type RendererOption func(*Renderer)

// WithClock 替换时间来源
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) {
		r.now = now
	}
}

func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render 按标题、生成时间、逐个职业（描述、所需技能、学习资源）的版式输出 PDF
func (r *Renderer) Render(results []types.EnrichedInsight) (*Report, error) {
	generatedAt := r.now()

	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetTitle(reportTitle, true)
	doc.SetCreator("career-guide-go", true)
	doc.SetAutoPageBreak(true, 20)
	// 内置字体为 cp1252 编码
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	doc.SetFont(fontFamily, "B", titleSize)
	doc.MultiCell(0, 12, reportTitle, "", "L", false)
	doc.Ln(8)

	doc.SetFont(fontFamily, "", bodySize)
	doc.MultiCell(0, lineHeight, "Generated on: "+generatedAt.Format("2006-01-02 15:04:05"), "", "L", false)
	doc.Ln(10)

	for _, in := range results {
		doc.SetFont(fontFamily, "B", heading2Size)
		doc.MultiCell(0, 8, tr(in.Title), "", "L", false)
		doc.Ln(3)

		heading(doc, "Description:")
		body(doc, tr(in.Description))
		doc.Ln(3)

		heading(doc, "Required Skills:")
		body(doc, tr(strings.Join(in.Skills, ", ")))
		doc.Ln(3)

		heading(doc, "Learning Resources:")
		for _, res := range in.Resources {
			body(doc, tr(fmt.Sprintf("• %s: %s", res.Name, res.URL)))
		}
		doc.Ln(7)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成PDF失败: %w", err)
	}
	return &Report{
		ID:          uuid.NewString(),
		Filename:    Filename(generatedAt),
		GeneratedAt: generatedAt,
		Data:        buf.Bytes(),
	}, nil
}

func heading(doc *fpdf.Fpdf, text string) {
	doc.SetFont(fontFamily, "B", heading3Size)
	doc.MultiCell(0, 7, text, "", "L", false)
}

func body(doc *fpdf.Fpdf, text string) {
	doc.SetFont(fontFamily, "", bodySize)
	doc.MultiCell(0, lineHeight, text, "", "L", false)
}
