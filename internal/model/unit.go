package model

import (
	"time"
)

// SourceFile records the content hash of an indexed file so unchanged
// files can be skipped on re-index.
type SourceFile struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	ProjectName string    `gorm:"size:200;not null;uniqueIndex:idx_project_path" json:"project_name"`
	FilePath    string    `gorm:"size:500;not null;uniqueIndex:idx_project_path" json:"file_path"`
	SHA256      string    `gorm:"column:sha256;size:64;not null" json:"sha256"`
	UnitCount   int       `gorm:"default:0" json:"unit_count"`
	IndexedAt   time.Time `json:"indexed_at"`
}

func (SourceFile) TableName() string {
	return "source_files"
}

// SemanticUnit is one extracted declaration (function, type, class) of a source file.
type SemanticUnit struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	ProjectName string `gorm:"size:200;not null;index" json:"project_name"`
	FilePath    string `gorm:"size:500;not null;index" json:"file_path"`
	UnitType    string `gorm:"size:20;not null" json:"unit_type"` // function, type, class
	Name        string `gorm:"size:200;not null" json:"name"`
	StartLine   int    `gorm:"not null" json:"start_line"`
	EndLine     int    `gorm:"not null" json:"end_line"`
}

func (SemanticUnit) TableName() string {
	return "semantic_units"
}
