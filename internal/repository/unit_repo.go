package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/coderag/index_go_server/internal/model"
)

type UnitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// SourceHash returns the stored content hash for a file, or "" if the file
// has never been indexed for this project.
func (r *UnitRepository) SourceHash(projectName, filePath string) (string, error) {
	var src model.SourceFile
	err := r.db.Where("project_name = ? AND file_path = ?", projectName, filePath).First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return src.SHA256, nil
}

// ReplaceUnits swaps out all units of one file and records its new hash,
// in a single transaction.
func (r *UnitRepository) ReplaceUnits(projectName, filePath, sha string, units []model.SemanticUnit) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_name = ? AND file_path = ?", projectName, filePath).
			Delete(&model.SemanticUnit{}).Error; err != nil {
			return err
		}

		if len(units) > 0 {
			if err := tx.Create(&units).Error; err != nil {
				return err
			}
		}

		var src model.SourceFile
		err := tx.Where("project_name = ? AND file_path = ?", projectName, filePath).First(&src).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.SourceFile{
				ProjectName: projectName,
				FilePath:    filePath,
				SHA256:      sha,
				UnitCount:   len(units),
				IndexedAt:   time.Now().UTC(),
			}).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&src).Updates(map[string]interface{}{
			"sha256":     sha,
			"unit_count": len(units),
			"indexed_at": time.Now().UTC(),
		}).Error
	})
}

// CountUnits returns how many units a project currently has.
func (r *UnitRepository) CountUnits(projectName string) (int64, error) {
	var count int64
	err := r.db.Model(&model.SemanticUnit{}).
		Where("project_name = ?", projectName).
		Count(&count).Error
	return count, err
}
