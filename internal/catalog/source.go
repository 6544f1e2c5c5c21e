package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"career-guide-go/internal/storage/models"
	"career-guide-go/internal/types"

	"gopkg.in/yaml.v3"
)

// Source 职业目录数据源
type Source interface {
	// Load 按目录顺序返回全部原始记录，不做校验
	Load(ctx context.Context) ([]*types.CareerRecord, error)
	// Name 数据源描述，用于日志
	Name() string
}

// dataset 数据文件格式: {"careers": [...]}，也接受顶层数组
type dataset struct {
	Careers []*types.CareerRecord `json:"careers" yaml:"careers"`
}

// FileSource 从 JSON 或 YAML 文件读取目录
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string {
	return "file:" + s.Path
}

func (s *FileSource) Load(_ context.Context) ([]*types.CareerRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, types.NewDataError("FileSource.Load", fmt.Sprintf("读取目录文件失败: %v", err))
	}
	records, err := ParseDataset(data, filepath.Ext(s.Path))
	if err != nil {
		return nil, types.NewDataError("FileSource.Load", fmt.Sprintf("%s: %v", s.Path, err))
	}
	return records, nil
}

// ParseDataset 解析目录数据，ext 为 .yaml/.yml 时按 YAML 解析，否则按 JSON
func ParseDataset(data []byte, ext string) ([]*types.CareerRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("目录文件为空")
	}

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if trimmed[0] == '-' {
			var list []*types.CareerRecord
			if err := yaml.Unmarshal(trimmed, &list); err != nil {
				return nil, fmt.Errorf("解析 YAML 失败: %w", err)
			}
			return list, nil
		}
		var ds dataset
		if err := yaml.Unmarshal(trimmed, &ds); err != nil {
			return nil, fmt.Errorf("解析 YAML 失败: %w", err)
		}
		return ds.Careers, nil
	default:
		if trimmed[0] == '[' {
			var list []*types.CareerRecord
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, fmt.Errorf("解析 JSON 失败: %w", err)
			}
			return list, nil
		}
		var ds dataset
		if err := json.Unmarshal(trimmed, &ds); err != nil {
			return nil, fmt.Errorf("解析 JSON 失败: %w", err)
		}
		return ds.Careers, nil
	}
}

// CareerLister 读取职业表的存储能力，由 storage.MySQL 实现
type CareerLister interface {
	ListCareers(ctx context.Context) ([]models.Career, error)
}

// MySQLSource 从 careers 表读取目录
type MySQLSource struct {
	db CareerLister
}

func NewMySQLSource(db CareerLister) *MySQLSource {
	return &MySQLSource{db: db}
}

func (s *MySQLSource) Name() string {
	return "mysql:careers"
}

func (s *MySQLSource) Load(ctx context.Context) ([]*types.CareerRecord, error) {
	rows, err := s.db.ListCareers(ctx)
	if err != nil {
		return nil, types.NewDataError("MySQLSource.Load", err.Error())
	}
	records := make([]*types.CareerRecord, 0, len(rows))
	for i := range rows {
		r, err := rows[i].ToRecord()
		if err != nil {
			return nil, types.NewDataError("MySQLSource.Load", err.Error())
		}
		records = append(records, r)
	}
	return records, nil
}
