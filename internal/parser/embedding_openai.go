package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"career-guide-go/internal/config"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// 确保实现 eino embedding.Embedder 接口
var _ embedding.Embedder = (*OpenAIEmbedder)(nil)

// ErrModelOverride 单次调用指定了与配置不同的模型。ModelVersion 只反映配置的模型，混用会使向量版本标签失真
var ErrModelOverride = fmt.Errorf("不支持按次覆盖向量模型")

// OpenAIEmbedder 调用 OpenAI 兼容的 /embeddings 接口
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// EmbedderOption OpenAIEmbedder 配置选项
type EmbedderOption func(*OpenAIEmbedder)

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) EmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.httpClient = c
	}
}

// WithEmbedderLogger 设置日志实例
func WithEmbedderLogger(l zerolog.Logger) EmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.logger = l
	}
}

// NewOpenAIEmbedder 创建 Embedder。API key 可为空（本地兼容服务），BaseURL 与模型必填。
func NewOpenAIEmbedder(cfg config.EmbeddingConfig, opts ...EmbedderOption) (*OpenAIEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base_url 不能为空")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model 不能为空")
	}
	if cfg.Dimensions < 0 {
		return nil, fmt.Errorf("embedding dimensions 不能为负数: %d", cfg.Dimensions)
	}

	e := &OpenAIEmbedder{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: config.GetDuration(cfg.Timeout, 30*time.Second)},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// GetDimensions 返回配置的维度，0 表示由模型决定
func (e *OpenAIEmbedder) GetDimensions() int {
	return e.dimensions
}

// ModelVersion 向量版本标签：模型名，指定维度时附加维度
func (e *OpenAIEmbedder) ModelVersion() string {
	if e.dimensions > 0 {
		return e.model + "@" + strconv.Itoa(e.dimensions)
	}
	return e.model
}

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Object string               `json:"object"`
	Data   []embeddingDataEntry `json:"data"`
	Model  string               `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

type embeddingDataEntry struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// EmbedStrings 将文本转换为向量，返回顺序与输入一致
func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	options := embedding.GetCommonOptions(&embedding.Options{}, opts...)
	model := e.model
	if options.Model != nil && *options.Model != "" && *options.Model != e.model {
		return nil, fmt.Errorf("%w: 配置为 %q，请求为 %q", ErrModelOverride, e.model, *options.Model)
	}

	payload, err := json.Marshal(embeddingRequest{
		Input:          texts,
		Model:          model,
		Dimensions:     e.dimensions,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var wrapped struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
			return nil, fmt.Errorf("API调用失败, 状态码: %d, 类型: %s, 错误: %s", resp.StatusCode, wrapped.Error.Type, wrapped.Error.Message)
		}
		return nil, fmt.Errorf("API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("API返回错误: 类型=%s, 消息='%s'", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("返回向量数量(%d)与输入文本数量(%d)不一致", len(parsed.Data), len(texts))
	}

	sort.SliceStable(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	out := make([][]float64, len(parsed.Data))
	for i, entry := range parsed.Data {
		if len(entry.Embedding) == 0 {
			return nil, fmt.Errorf("第 %d 条文本返回空向量", i)
		}
		out[i] = entry.Embedding
	}

	e.logger.Debug().
		Int("texts", len(texts)).
		Int("dimensions", len(out[0])).
		Int("total_tokens", parsed.Usage.TotalTokens).
		Dur("latency", time.Since(start)).
		Msg("文本向量化完成")
	return out, nil
}

func truncateBody(body []byte) string {
	const maxLen = 300
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "..."
}
