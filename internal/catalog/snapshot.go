package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"career-guide-go/internal/storage"
	"career-guide-go/internal/storage/models"
	"career-guide-go/internal/types"
)

// ErrSnapshotNotFound 尚未生成向量快照
var ErrSnapshotNotFound = errors.New("向量快照不存在")

// Snapshot 带模型版本标签的目录向量快照
type Snapshot struct {
	ModelVersion string          `json:"model_version"`
	Entries      []SnapshotEntry `json:"entries"`
}

// SnapshotEntry 单条记录的向量，TextHash 为向量化文本的 sha256
type SnapshotEntry struct {
	Title     string    `json:"title"`
	TextHash  string    `json:"text_hash"`
	Embedding []float64 `json:"embedding"`
}

// SnapshotStore 快照持久化
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, s *Snapshot) error
}

// TextHash 向量化文本的 sha256 十六进制
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Vectors 当快照与当前目录完全一致时按记录顺序返回向量。
// 模型版本、记录数、任一标题或文本哈希不一致，或维度不统一时返回原因。
func (s *Snapshot) Vectors(modelVersion string, records []*types.CareerRecord) ([][]float64, error) {
	if s == nil {
		return nil, ErrSnapshotNotFound
	}
	if s.ModelVersion != modelVersion {
		return nil, fmt.Errorf("模型版本不一致: 快照=%q 当前=%q", s.ModelVersion, modelVersion)
	}
	if len(s.Entries) != len(records) {
		return nil, fmt.Errorf("记录数不一致: 快照=%d 当前=%d", len(s.Entries), len(records))
	}

	byTitle := make(map[string]SnapshotEntry, len(s.Entries))
	for _, e := range s.Entries {
		byTitle[e.Title] = e
	}

	vectors := make([][]float64, len(records))
	dims := -1
	for i, r := range records {
		e, ok := byTitle[r.Title]
		if !ok {
			return nil, fmt.Errorf("快照缺少记录: %s", r.Title)
		}
		if e.TextHash != TextHash(EmbeddingText(r)) {
			return nil, fmt.Errorf("记录文本已变更: %s", r.Title)
		}
		if len(e.Embedding) == 0 || (dims >= 0 && len(e.Embedding) != dims) {
			return nil, fmt.Errorf("快照向量维度无效: %s", r.Title)
		}
		dims = len(e.Embedding)
		vectors[i] = e.Embedding
	}
	return vectors, nil
}

// NewSnapshot 由已向量化的记录构造快照
func NewSnapshot(modelVersion string, records []*types.CareerRecord) *Snapshot {
	s := &Snapshot{ModelVersion: modelVersion, Entries: make([]SnapshotEntry, 0, len(records))}
	for _, r := range records {
		s.Entries = append(s.Entries, SnapshotEntry{
			Title:     r.Title,
			TextHash:  TextHash(EmbeddingText(r)),
			Embedding: r.Embedding,
		})
	}
	return s
}

// FileSnapshotStore 以 JSON 文件保存快照
type FileSnapshotStore struct {
	Path string
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{Path: path}
}

func (f *FileSnapshotStore) LoadSnapshot(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取向量快照失败: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("解析向量快照失败: %w", err)
	}
	return &s, nil
}

// SaveSnapshot 先写临时文件再重命名，避免读到半写入的快照
func (f *FileSnapshotStore) SaveSnapshot(_ context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("序列化向量快照失败: %w", err)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建快照目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("创建临时快照文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入向量快照失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入向量快照失败: %w", err)
	}
	return os.Rename(tmp.Name(), f.Path)
}

// EmbeddingRepository 向量快照表的存储能力，由 storage.MySQL 实现
type EmbeddingRepository interface {
	LoadEmbeddings(ctx context.Context) ([]models.CareerEmbedding, error)
	ReplaceEmbeddings(ctx context.Context, rows []models.CareerEmbedding) error
}

// MySQLSnapshotStore 以 career_embeddings 表保存快照
type MySQLSnapshotStore struct {
	repo EmbeddingRepository
}

func NewMySQLSnapshotStore(repo EmbeddingRepository) *MySQLSnapshotStore {
	return &MySQLSnapshotStore{repo: repo}
}

// LoadSnapshot 表中存在多个模型版本时视为无效快照
func (m *MySQLSnapshotStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := m.repo.LoadEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrSnapshotNotFound
	}

	s := &Snapshot{ModelVersion: rows[0].ModelVersion, Entries: make([]SnapshotEntry, 0, len(rows))}
	for _, row := range rows {
		if row.ModelVersion != s.ModelVersion {
			return nil, fmt.Errorf("快照包含多个模型版本: %q, %q", s.ModelVersion, row.ModelVersion)
		}
		vec, err := storage.DecodeVector(row.Vector)
		if err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, SnapshotEntry{Title: row.Title, TextHash: row.TextHash, Embedding: vec})
	}
	return s, nil
}

func (m *MySQLSnapshotStore) SaveSnapshot(ctx context.Context, s *Snapshot) error {
	rows := make([]models.CareerEmbedding, 0, len(s.Entries))
	for _, e := range s.Entries {
		vec, err := storage.EncodeVector(e.Embedding)
		if err != nil {
			return err
		}
		rows = append(rows, models.CareerEmbedding{
			Title:        e.Title,
			ModelVersion: s.ModelVersion,
			TextHash:     e.TextHash,
			Dimensions:   len(e.Embedding),
			Vector:       vec,
		})
	}
	return m.repo.ReplaceEmbeddings(ctx, rows)
}
