package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"career-guide-go/internal/parser"
	"career-guide-go/internal/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func sampleInsights() []types.EnrichedInsight {
	return []types.EnrichedInsight{
		{
			Title:       "Data Scientist",
			Description: "Analyze complex data to drive decisions",
			Skills:      []string{"Python", "SQL", "Statistics"},
			Resources: []types.Resource{
				{Name: "Kaggle Learn", URL: "https://www.kaggle.com/learn"},
			},
		},
		{
			Title:       "UX Designer",
			Description: "Design user-centred interfaces",
			Skills:      []string{"Figma"},
		},
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "career_recommendations_20240305_140709.pdf", Filename(fixedTime))
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(WithClock(func() time.Time { return fixedTime }))

	rep, err := r.Render(sampleInsights())
	require.NoError(t, err)
	assert.Equal(t, "career_recommendations_20240305_140709.pdf", rep.Filename)
	assert.Equal(t, fixedTime, rep.GeneratedAt)
	require.True(t, bytes.HasPrefix(rep.Data, []byte("%PDF-")))

	extractor, err := parser.NewProfileExtractor(context.Background())
	require.NoError(t, err)
	text, err := extractor.ExtractTextFromBytes(context.Background(), rep.Data, rep.Filename)
	require.NoError(t, err)
	for _, want := range []string{"Career Path Recommendations", "Data Scientist", "Required Skills", "Kaggle Learn"} {
		assert.Contains(t, text, want)
	}
}

func TestRenderer_RenderEmpty(t *testing.T) {
	rep, err := NewRenderer().Render(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Data)
}

// MockObjectStorage 模拟对象存储
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PutObject(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, objectName, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func TestArchiver_Archive(t *testing.T) {
	rep := &Report{ID: "r-1", Filename: Filename(fixedTime), GeneratedAt: fixedTime, Data: []byte("%PDF-1.3")}
	objectName := "reports/2024/03/05/r-1/career_recommendations_20240305_140709.pdf"

	store := &MockObjectStorage{}
	store.On("PutObject", mock.Anything, objectName, rep.Data, "application/pdf").Return(objectName, nil).Once()
	store.On("GetPresignedURL", mock.Anything, objectName, 30*time.Minute).Return("https://minio.local/signed", nil).Once()

	res, err := NewArchiver(store, 30*time.Minute, zerolog.Nop()).Archive(context.Background(), rep)
	require.NoError(t, err)
	assert.Equal(t, objectName, res.ObjectName)
	assert.Equal(t, "https://minio.local/signed", res.URL)
	assert.Equal(t, rep.Filename, res.Filename)
	assert.True(t, res.ExpiresAt.After(time.Now()))
	store.AssertExpectations(t)
}

func TestObjectName_UniquePerRender(t *testing.T) {
	r := NewRenderer(WithClock(func() time.Time { return fixedTime }))
	first, err := r.Render(sampleInsights())
	require.NoError(t, err)
	second, err := r.Render(sampleInsights())
	require.NoError(t, err)

	assert.Equal(t, first.Filename, second.Filename, "文件名只精确到秒")
	assert.NotEqual(t, ObjectName(first), ObjectName(second))
	assert.True(t, strings.HasPrefix(ObjectName(first), "reports/2024/03/05/"))
	assert.True(t, strings.HasSuffix(ObjectName(first), "/"+first.Filename))
}

func TestArchiver_AssignsMissingID(t *testing.T) {
	rep := &Report{Filename: "r.pdf", GeneratedAt: fixedTime, Data: []byte("x")}
	store := &MockObjectStorage{}
	store.On("PutObject", mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "reports/2024/03/05/") && strings.HasSuffix(name, "/r.pdf") && name != "reports/2024/03/05//r.pdf"
	}), rep.Data, "application/pdf").Return("stored", nil).Once()
	store.On("GetPresignedURL", mock.Anything, "stored", time.Hour).Return("https://minio.local/signed", nil).Once()

	_, err := NewArchiver(store, 0, zerolog.Nop()).Archive(context.Background(), rep)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.ID)
	store.AssertExpectations(t)
}

func TestArchiver_UploadFailure(t *testing.T) {
	rep := &Report{Filename: "r.pdf", GeneratedAt: fixedTime, Data: []byte("x")}
	store := &MockObjectStorage{}
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))

	_, err := NewArchiver(store, 0, zerolog.Nop()).Archive(context.Background(), rep)
	assert.Error(t, err)
	store.AssertNotCalled(t, "GetPresignedURL", mock.Anything, mock.Anything, mock.Anything)
}
