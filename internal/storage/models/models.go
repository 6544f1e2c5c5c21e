package models

import (
	"encoding/json"
	"fmt"
	"time"

	"career-guide-go/internal/types"

	"gorm.io/datatypes"
)

// Career 职业目录表，Position 保存目录顺序，用于稳定排序
type Career struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	Title       string         `gorm:"type:varchar(191);not null;uniqueIndex:idx_careers_title_unique"`
	Description string         `gorm:"type:text;not null"`
	Domain      string         `gorm:"type:varchar(100);not null;index:idx_careers_domain"`
	Level       string         `gorm:"type:varchar(20);not null;index:idx_careers_level"`
	Skills      datatypes.JSON `gorm:"type:json"`
	Keywords    datatypes.JSON `gorm:"type:json"`
	Resources   datatypes.JSON `gorm:"type:json"`
	Position    int            `gorm:"not null;default:0;index:idx_careers_position"`
	CreatedAt   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Career) TableName() string {
	return "careers"
}

// ToRecord 转换为目录记录，JSON 列解析失败时返回错误
func (c *Career) ToRecord() (*types.CareerRecord, error) {
	r := &types.CareerRecord{
		Title:       c.Title,
		Description: c.Description,
		Domain:      c.Domain,
		Level:       c.Level,
	}
	if err := unmarshalJSONColumn(c.Skills, &r.Skills); err != nil {
		return nil, fmt.Errorf("解析 skills 失败 (title=%s): %w", c.Title, err)
	}
	if err := unmarshalJSONColumn(c.Keywords, &r.Keywords); err != nil {
		return nil, fmt.Errorf("解析 keywords 失败 (title=%s): %w", c.Title, err)
	}
	if err := unmarshalJSONColumn(c.Resources, &r.Resources); err != nil {
		return nil, fmt.Errorf("解析 resources 失败 (title=%s): %w", c.Title, err)
	}
	return r, nil
}

// CareerFromRecord 由目录记录构造表记录
func CareerFromRecord(r *types.CareerRecord, position int) (*Career, error) {
	skills, err := json.Marshal(r.Skills)
	if err != nil {
		return nil, err
	}
	keywords, err := json.Marshal(r.Keywords)
	if err != nil {
		return nil, err
	}
	resources, err := json.Marshal(r.Resources)
	if err != nil {
		return nil, err
	}
	return &Career{
		Title:       r.Title,
		Description: r.Description,
		Domain:      r.Domain,
		Level:       r.Level,
		Skills:      datatypes.JSON(skills),
		Keywords:    datatypes.JSON(keywords),
		Resources:   datatypes.JSON(resources),
		Position:    position,
	}, nil
}

// CareerEmbedding 职业向量快照，TextHash 为向量化文本的 sha256
type CareerEmbedding struct {
	Title        string    `gorm:"type:varchar(191);primaryKey"`
	ModelVersion string    `gorm:"type:varchar(100);not null;index:idx_ce_model_version"`
	TextHash     string    `gorm:"type:char(64);not null"`
	Dimensions   int       `gorm:"not null"`
	Vector       []byte    `gorm:"type:mediumblob;not null"` // JSON 序列化的 []float64
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (CareerEmbedding) TableName() string {
	return "career_embeddings"
}

func unmarshalJSONColumn(data datatypes.JSON, dest interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dest)
}
