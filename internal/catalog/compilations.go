package catalog

import (
	"context"
	"log/slog"

	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/store"
)

// EventViews turns stored events into decorated short views.
type EventViews interface {
	Shorts(ctx context.Context, events []models.Event) ([]dto.EventShort, error)
}

type Compilations struct {
	store  *store.Store
	events EventViews
	log    *slog.Logger
}

func NewCompilations(st *store.Store, events EventViews, log *slog.Logger) *Compilations {
	return &Compilations{store: st, events: events, log: log}
}

// CompilationPatch holds optional changes. A non-nil Events replaces the
// linked events.
type CompilationPatch struct {
	Title  *string
	Pinned *bool
	Events *[]uint
}

func (c *Compilations) Create(ctx context.Context, title string, pinned bool, eventIDs []uint) (dto.Compilation, error) {
	comp := models.Compilation{Title: title, Pinned: pinned}
	if err := c.store.CreateCompilation(ctx, &comp, eventIDs); err != nil {
		return dto.Compilation{}, err
	}
	c.log.Info("compilation created", "compilation_id", comp.ID)
	return c.view(ctx, comp)
}

func (c *Compilations) Update(ctx context.Context, id uint, p CompilationPatch) (dto.Compilation, error) {
	comp, err := c.store.GetCompilation(ctx, id)
	if err != nil {
		return dto.Compilation{}, err
	}
	if p.Title != nil {
		comp.Title = *p.Title
	}
	if p.Pinned != nil {
		comp.Pinned = *p.Pinned
	}
	if err := c.store.SaveCompilation(ctx, comp, p.Events); err != nil {
		return dto.Compilation{}, err
	}
	return c.view(ctx, *comp)
}

func (c *Compilations) Delete(ctx context.Context, id uint) error {
	if err := c.store.DeleteCompilation(ctx, id); err != nil {
		return err
	}
	c.log.Info("compilation deleted", "compilation_id", id)
	return nil
}

func (c *Compilations) Get(ctx context.Context, id uint) (dto.Compilation, error) {
	comp, err := c.store.GetCompilation(ctx, id)
	if err != nil {
		return dto.Compilation{}, err
	}
	return c.view(ctx, *comp)
}

func (c *Compilations) List(ctx context.Context, pinned *bool, page store.Page) ([]dto.Compilation, error) {
	comps, err := c.store.ListCompilations(ctx, pinned, page)
	if err != nil {
		return nil, err
	}
	return c.views(ctx, comps)
}

func (c *Compilations) view(ctx context.Context, comp models.Compilation) (dto.Compilation, error) {
	out, err := c.views(ctx, []models.Compilation{comp})
	if err != nil {
		return dto.Compilation{}, err
	}
	return out[0], nil
}

// views decorates all events of all compilations in one pass.
func (c *Compilations) views(ctx context.Context, comps []models.Compilation) ([]dto.Compilation, error) {
	ids := make([]uint, 0, len(comps))
	for _, comp := range comps {
		ids = append(ids, comp.ID)
	}
	links, err := c.store.CompilationEventIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var eventIDs []uint
	for _, l := range links {
		eventIDs = append(eventIDs, l...)
	}
	evs, err := c.store.EventsByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	shorts, err := c.events.Shorts(ctx, evs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]dto.EventShort, len(shorts))
	for _, s := range shorts {
		byID[s.ID] = s
	}

	out := make([]dto.Compilation, 0, len(comps))
	for _, comp := range comps {
		v := dto.Compilation{ID: comp.ID, Title: comp.Title, Pinned: comp.Pinned, Events: []dto.EventShort{}}
		for _, id := range links[comp.ID] {
			if s, ok := byID[id]; ok {
				v.Events = append(v.Events, s)
			}
		}
		out = append(out, v)
	}
	return out, nil
}
