package catalog

import (
	"context"
	"log/slog"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/store"
)

type Categories struct {
	store *store.Store
	log   *slog.Logger
}

func NewCategories(st *store.Store, log *slog.Logger) *Categories {
	return &Categories{store: st, log: log}
}

func (c *Categories) Create(ctx context.Context, name string) (dto.Category, error) {
	taken, err := c.store.CategoryNameTaken(ctx, name, 0)
	if err != nil {
		return dto.Category{}, err
	}
	if taken {
		return dto.Category{}, apperr.Conflict("Category with name %s already exists", name)
	}
	cat := models.Category{Name: name}
	if err := c.store.CreateCategory(ctx, &cat); err != nil {
		return dto.Category{}, err
	}
	c.log.Info("category created", "category_id", cat.ID)
	return dto.NewCategory(cat), nil
}

// Rename changes a category name. Keeping the current name is allowed.
func (c *Categories) Rename(ctx context.Context, id uint, name string) (dto.Category, error) {
	cat, err := c.store.GetCategory(ctx, id)
	if err != nil {
		return dto.Category{}, err
	}
	taken, err := c.store.CategoryNameTaken(ctx, name, id)
	if err != nil {
		return dto.Category{}, err
	}
	if taken {
		return dto.Category{}, apperr.Conflict("Category with name %s already exists", name)
	}
	cat.Name = name
	if err := c.store.SaveCategory(ctx, cat); err != nil {
		return dto.Category{}, err
	}
	return dto.NewCategory(*cat), nil
}

// Delete removes a category no event refers to.
func (c *Categories) Delete(ctx context.Context, id uint) error {
	return c.store.Transaction(ctx, func(tx *store.Store) error {
		if _, err := tx.GetCategory(ctx, id); err != nil {
			return err
		}
		used, err := tx.CategoryInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.Conflict("The category is not empty")
		}
		return tx.DeleteCategory(ctx, id)
	})
}

func (c *Categories) Get(ctx context.Context, id uint) (dto.Category, error) {
	cat, err := c.store.GetCategory(ctx, id)
	if err != nil {
		return dto.Category{}, err
	}
	return dto.NewCategory(*cat), nil
}

func (c *Categories) List(ctx context.Context, page store.Page) ([]dto.Category, error) {
	cats, err := c.store.ListCategories(ctx, page)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Category, 0, len(cats))
	for _, cat := range cats {
		out = append(out, dto.NewCategory(cat))
	}
	return out, nil
}
