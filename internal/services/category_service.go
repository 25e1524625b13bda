package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

const defaultCategoryIcon = "tag"

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory adds a household-wide category. Admin only.
func (s *categoryService) CreateCategory(actor Actor, name, icon string) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "category name is required")
	}
	if icon == "" {
		icon = defaultCategoryIcon
	}

	if err := s.ensureUniqueName(s.db, name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Icon: icon}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// ListCategories returns all categories ordered by name.
func (s *categoryService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(id string) (*models.Category, error) {
	return s.find(s.db, id)
}

// UpdateCategory renames a category and moves every expense filed under the
// old name to the new one, in one transaction. Admin only.
func (s *categoryService) UpdateCategory(actor Actor, id, name, icon string) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	name = strings.TrimSpace(name)

	var category *models.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		category, err = s.find(tx, id)
		if err != nil {
			return err
		}
		oldName := category.Name

		updates := map[string]any{}
		if name != "" && name != oldName {
			if err := s.ensureUniqueName(tx, name, category.ID); err != nil {
				return err
			}
			updates["name"] = name
		}
		if icon != "" {
			updates["icon"] = icon
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(category).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if _, renamed := updates["name"]; renamed && !strings.EqualFold(oldName, name) {
			res := tx.Model(&models.Expense{}).
				Where("category = ?", strings.ToLower(oldName)).
				Update("category", strings.ToLower(name))
			if res.Error != nil {
				logger.Get().Errorw("failed to reassign expenses to renamed category",
					"error", res.Error,
					"category_id", category.ID,
					"old_name", oldName,
					"new_name", name,
				)
				return apperrors.Wrap(apperrors.ErrCategoryReassignFailed, res.Error)
			}
			logger.Get().Infow("reassigned expenses to renamed category",
				"category_id", category.ID,
				"expenses", res.RowsAffected,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category that no live expense uses. Admin only.
func (s *categoryService) DeleteCategory(actor Actor, id string) error {
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		category, err := s.find(tx, id)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Expense{}).
			Where("category = ?", strings.ToLower(category.Name)).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrCategoryInUse
		}

		if err := tx.Unscoped().Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// SeedDefaults creates the default categories when none exist yet.
func (s *categoryService) SeedDefaults() error {
	var count int64
	if err := s.db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	seed := make([]models.Category, len(models.DefaultCategories))
	copy(seed, models.DefaultCategories)
	if err := s.db.Create(&seed).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	logger.Get().Infow("seeded default categories", "count", len(seed))
	return nil
}

func (s *categoryService) find(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *categoryService) ensureUniqueName(db *gorm.DB, name, exceptID string) error {
	q := db.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}
