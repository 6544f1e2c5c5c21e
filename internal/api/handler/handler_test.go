package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"career-guide-go/internal/api/handler"
	"career-guide-go/internal/bookmark"
	"career-guide-go/internal/catalog"
	"career-guide-go/internal/parser"
	"career-guide-go/internal/processor"
	"career-guide-go/internal/report"
	"career-guide-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModelVersion = "stub-embed-v1"

// stubEmbedder 含 "excel" 的文本指向 B，其余指向 A；含 "fail" 时返回错误
type stubEmbedder struct{}

func (stubEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		switch {
		case strings.Contains(lower, "fail"):
			return nil, errors.New("provider unavailable")
		case strings.Contains(lower, "excel"):
			out[i] = []float64{0, 1}
		default:
			out[i] = []float64{1, 0}
		}
	}
	return out, nil
}

func (stubEmbedder) ModelVersion() string { return testModelVersion }

type fakeArchiver struct {
	archived []*report.Report
}

func (f *fakeArchiver) Archive(_ context.Context, r *report.Report) (*report.ArchiveResult, error) {
	f.archived = append(f.archived, r)
	return &report.ArchiveResult{Filename: r.Filename, ObjectName: "reports/" + r.Filename, URL: "https://minio.local/" + r.Filename}, nil
}

type testEnv struct {
	h        *server.Hertz
	archiver *fakeArchiver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cat, err := catalog.New([]*types.CareerRecord{
		{
			Title: "Software Developer", Description: "Build software", Domain: "Technology",
			Level: types.LevelBeginner, Skills: []string{"python"}, Embedding: []float64{1, 0},
			Resources: []types.Resource{{Name: "Go Tour", URL: "https://go.dev/tour"}},
		},
		{
			Title: "Investment Banker", Description: "Advise on deals", Domain: "Finance",
			Level: types.LevelAdvanced, Skills: []string{"excel"}, Embedding: []float64{0, 1},
		},
	}, testModelVersion)
	require.NoError(t, err)

	rec := processor.NewRecommender(cat, processor.NewQueryEmbedder(stubEmbedder{}, nil, zerolog.Nop()))
	extractor, err := parser.NewProfileExtractor(context.Background())
	require.NoError(t, err)

	archiver := &fakeArchiver{}
	career := handler.NewCareerHandler(rec,
		handler.WithProfileExtractor(extractor),
		handler.WithReportArchiver(archiver),
	)

	store := bookmark.NewMemoryStore(time.Hour)
	t.Cleanup(store.Stop)
	bookmarks := handler.NewBookmarkHandler(bookmark.NewService(store, cat, zerolog.Nop()))

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	api := h.Group("/api/v1")
	api.GET("/health", career.HandleHealth)
	api.POST("/recommend", career.HandleRecommend)
	api.POST("/recommend/upload", career.HandleRecommendUpload)
	api.POST("/report", career.HandleReport)
	api.GET("/domains", career.HandleDomains)
	api.GET("/levels", career.HandleLevels)
	api.GET("/careers", career.HandleCareers)
	api.GET("/careers/:title/insight", career.HandleInsight)
	api.POST("/sessions", bookmarks.HandleCreateSession)
	api.GET("/sessions/:session_id/bookmarks", bookmarks.HandleListBookmarks)
	api.DELETE("/sessions/:session_id/bookmarks", bookmarks.HandleClearBookmarks)
	api.POST("/sessions/:session_id/bookmarks/:title", bookmarks.HandleToggleBookmark)
	api.PUT("/sessions/:session_id/bookmarks/:title", bookmarks.HandleAddBookmark)
	api.DELETE("/sessions/:session_id/bookmarks/:title", bookmarks.HandleRemoveBookmark)

	return &testEnv{h: h, archiver: archiver}
}

func (e *testEnv) postJSON(path, body string) *ut.ResponseRecorder {
	return ut.PerformRequest(e.h.Engine, http.MethodPost, path,
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func (e *testEnv) do(method, path string) *ut.ResponseRecorder {
	return ut.PerformRequest(e.h.Engine, method, path, nil)
}

func decode[T any](t *testing.T, w *ut.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{types.NewValidationError("op", "x"), http.StatusBadRequest, "validation"},
		{types.NewNotFoundError("op", "x"), http.StatusNotFound, "not_found"},
		{types.NewEmbeddingError("op", errors.New("x")), http.StatusBadGateway, "embedding"},
		{types.NewDataError("op", "x"), http.StatusInternalServerError, "data"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, kind := handler.StatusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.kind, kind)
	}
}

func TestHandleRecommend(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/api/v1/recommend", `{"text":"I love python and data","top_n":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.RecommendationResponse](t, w)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Software Developer", resp.Results[0].Title)
	assert.Equal(t, "Investment Banker", resp.Results[1].Title)
	assert.Equal(t, testModelVersion, resp.ModelVersion)

	w = env.postJSON("/api/v1/recommend", `{"user_input":"I love python","domain":"Finance"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[types.RecommendationResponse](t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Investment Banker", resp.Results[0].Title)

	w = env.postJSON("/api/v1/recommend", `{"text":"I love python","min_confidence":0.99,"top_n":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[types.RecommendationResponse](t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Software Developer", resp.Results[0].Title)
}

func TestHandleRecommend_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"空文本", `{"text":"  "}`, http.StatusBadRequest, "validation"},
		{"top_n 为 0", `{"text":"python","top_n":0}`, http.StatusBadRequest, "validation"},
		{"未知 level", `{"text":"python","level":"Guru"}`, http.StatusBadRequest, "validation"},
		{"向量化失败", `{"text":"please fail"}`, http.StatusBadGateway, "embedding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.postJSON("/api/v1/recommend", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			errResp := decode[handler.ErrorResponse](t, w)
			assert.Equal(t, tt.kind, errResp.Kind)
			assert.NotEmpty(t, errResp.Error)
		})
	}

	w := env.postJSON("/api/v1/recommend", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogIntrospection(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/domains")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Finance", "Technology"}, decode[[]string](t, w))

	w = env.do(http.MethodGet, "/api/v1/levels")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{types.LevelBeginner, types.LevelAdvanced}, decode[[]string](t, w))

	w = env.do(http.MethodGet, "/api/v1/careers")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[handler.CareerListResponse](t, w)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "Software Developer", list.Careers[0].Title)
	assert.NotContains(t, w.Body.String(), "embedding", "向量不对外输出")

	w = env.do(http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[handler.HealthResponse](t, w)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, types.CatalogInfo{Size: 2, ModelVersion: testModelVersion, Dimensions: 2}, health.Catalog)
}

func TestHandleInsight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/careers/software%20developer/insight?text=I%20know%20python")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	in := decode[types.EnrichedInsight](t, w)
	assert.Equal(t, "Software Developer", in.Title)
	assert.Equal(t, 100.0, in.SkillMatchPercentage)

	w = env.do(http.MethodGet, "/api/v1/careers/Astronaut/insight?text=python")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[handler.ErrorResponse](t, w).Kind)

	w = env.do(http.MethodGet, "/api/v1/careers/Software%20Developer/insight")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleReport(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/api/v1/report", `{"text":"python","top_n":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := w.Result()
	assert.Equal(t, "application/pdf", string(res.Header.ContentType()))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "career_recommendations_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = env.postJSON("/api/v1/report?archive=true", `{"text":"python"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	archived := decode[report.ArchiveResult](t, w)
	assert.True(t, strings.HasPrefix(archived.URL, "https://minio.local/career_recommendations_"))
	require.Len(t, env.archiver.archived, 1)

	w = env.postJSON("/api/v1/report", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func profilePDF(t *testing.T, text string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(0, 10, text)
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestHandleRecommendUpload(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "cv.pdf", profilePDF(t, "Five years of Excel modelling"), map[string]string{"top_n": "1"})
	w := ut.PerformRequest(env.h.Engine, http.MethodPost, "/api/v1/recommend/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.RecommendationResponse](t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Investment Banker", resp.Results[0].Title)

	body, contentType = multipartBody(t, "cv.txt", []byte("plain text"), nil)
	w = ut.PerformRequest(env.h.Engine, http.MethodPost, "/api/v1/recommend/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = multipartBody(t, "cv.pdf", profilePDF(t, "python"), map[string]string{"top_n": "abc"})
	w = ut.PerformRequest(env.h.Engine, http.MethodPost, "/api/v1/recommend/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// ParseFloat 接受 "NaN"，需由推荐校验拒绝
	body, contentType = multipartBody(t, "cv.pdf", profilePDF(t, "python"), map[string]string{"min_confidence": "NaN"})
	w = ut.PerformRequest(env.h.Engine, http.MethodPost, "/api/v1/recommend/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "validation", decode[handler.ErrorResponse](t, w).Kind)
}

func TestBookmarkEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/sessions")
	require.Equal(t, http.StatusCreated, w.Code)
	sid := decode[handler.SessionResponse](t, w).SessionID
	require.NotEmpty(t, sid)
	base := "/api/v1/sessions/" + sid + "/bookmarks"

	w = env.do(http.MethodPost, base+"/software%20developer")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	toggled := decode[types.BookmarkToggleResponse](t, w)
	assert.True(t, toggled.Bookmarked)
	assert.Equal(t, "Software Developer", toggled.Title)

	w = env.do(http.MethodPut, base+"/Investment%20Banker")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, base)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[types.BookmarkListResponse](t, w)
	assert.Equal(t, []string{"Investment Banker", "Software Developer"}, list.Titles)

	w = env.do(http.MethodDelete, base+"/Investment%20Banker")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[types.BookmarkToggleResponse](t, w).Bookmarked)

	w = env.do(http.MethodPost, base+"/Software%20Developer")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[types.BookmarkToggleResponse](t, w).Bookmarked)

	w = env.do(http.MethodGet, base)
	assert.Empty(t, decode[types.BookmarkListResponse](t, w).Titles)

	w = env.do(http.MethodPost, base+"/Astronaut")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/sessions/not-a-uuid/bookmarks")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, base)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
