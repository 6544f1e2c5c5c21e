package report

import (
	"context"
	"fmt"
	"time"

	"career-guide-go/internal/constants"
	"career-guide-go/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ArchiveResult 归档后的下载信息
type ArchiveResult struct {
	Filename   string    `json:"filename"`
	ObjectName string    `json:"object_name"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Archiver 将报告上传到对象存储并签发下载链接
type Archiver struct {
	store  storage.ObjectStorage
	expiry time.Duration
	logger zerolog.Logger
}

func NewArchiver(store storage.ObjectStorage, expiry time.Duration, logger zerolog.Logger) *Archiver {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Archiver{store: store, expiry: expiry, logger: logger}
}

// ObjectName reports/YYYY/MM/DD/<id>/<filename>，文件名只精确到秒，由 ID 区分同一秒内的报告
func ObjectName(r *Report) string {
	return fmt.Sprintf("reports/%s/%s/%s", r.GeneratedAt.Format("2006/01/02"), r.ID, r.Filename)
}

func (a *Archiver) Archive(ctx context.Context, r *Report) (*ArchiveResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	objectName, err := a.store.PutObject(ctx, ObjectName(r), r.Data, constants.ReportContentType)
	if err != nil {
		return nil, err
	}
	url, err := a.store.GetPresignedURL(ctx, objectName, a.expiry)
	if err != nil {
		return nil, err
	}

	a.logger.Info().Str("object", objectName).Int("size", len(r.Data)).Msg("报告已归档")
	return &ArchiveResult{
		Filename:   r.Filename,
		ObjectName: objectName,
		URL:        url,
		ExpiresAt:  time.Now().Add(a.expiry),
	}, nil
}
