package store

import (
	"context"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	err := s.conn(ctx).Create(c).Error
	return duplicateOr(err, apperr.Conflict("Category with name %s already exists", c.Name))
}

func (s *Store) SaveCategory(ctx context.Context, c *models.Category) error {
	err := s.conn(ctx).Save(c).Error
	return duplicateOr(err, apperr.Conflict("Category with name %s already exists", c.Name))
}

func (s *Store) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Category with id=%d was not found", id))
	}
	return &c, nil
}

// CategoryNameTaken reports whether another category already uses name.
func (s *Store) CategoryNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Category{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&n).Error
	return n > 0, dbError(err)
}

func (s *Store) CategoryInUse(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Event{}).Where("category_id = ?", id).Count(&n).Error
	return n > 0, dbError(err)
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return dbError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Category with id=%d was not found", id)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context, page Page) ([]models.Category, error) {
	var cats []models.Category
	err := page.apply(s.conn(ctx).Order("id asc")).Find(&cats).Error
	return cats, dbError(err)
}

// CategoriesByIDs loads categories keyed by id.
func (s *Store) CategoriesByIDs(ctx context.Context, ids []uint) (map[uint]models.Category, error) {
	out := make(map[uint]models.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var cats []models.Category
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, dbError(err)
	}
	for _, c := range cats {
		out[c.ID] = c
	}
	return out, nil
}
