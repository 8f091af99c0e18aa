package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/catalog"
	"explorewithme-backend/internal/events"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/store"
	"explorewithme-backend/internal/store/storetest"
)

var (
	ctx   = context.Background()
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func firstPage(t *testing.T) store.Page {
	t.Helper()
	p, err := store.NewPage(0, 10)
	require.NoError(t, err)
	return p
}

func seedEvent(t *testing.T, st *store.Store, initiator, category uint) uint {
	t.Helper()
	ev := models.Event{
		Annotation:  "Annual open-air jazz evening",
		Description: "Three bands, one stage, all night",
		Title:       "Jazz night",
		EventDate:   time.Now().UTC().Add(48 * time.Hour),
		CreatedOn:   time.Now().UTC(),
		State:       models.EventPublished,
		CategoryID:  category,
		InitiatorID: initiator,
	}
	require.NoError(t, st.CreateEvent(ctx, &ev))
	return ev.ID
}

func TestUsers(t *testing.T) {
	st := storetest.Open(t)
	users := catalog.NewUsers(st, quiet)

	ann, err := users.Create(ctx, "Ann", "a@x.com")
	require.NoError(t, err)
	bob, err := users.Create(ctx, "Bob", "b@x.com")
	require.NoError(t, err)

	_, err = users.Create(ctx, "Ann again", "a@x.com")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	all, err := users.List(ctx, nil, firstPage(t))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := users.List(ctx, []uint{bob.ID}, firstPage(t))
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "b@x.com", some[0].Email)

	require.NoError(t, users.Delete(ctx, ann.ID))
	assert.ErrorIs(t, users.Delete(ctx, ann.ID), apperr.ErrNotFound)
}

func TestCategories(t *testing.T) {
	st := storetest.Open(t)
	cats := catalog.NewCategories(st, quiet)

	music, err := cats.Create(ctx, "Music")
	require.NoError(t, err)
	_, err = cats.Create(ctx, "Music")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	theatre, err := cats.Create(ctx, "Theatre")
	require.NoError(t, err)

	_, err = cats.Rename(ctx, theatre.ID, "Music")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	same, err := cats.Rename(ctx, music.ID, "Music")
	require.NoError(t, err)
	assert.Equal(t, "Music", same.Name)
	_, err = cats.Rename(ctx, 999, "Dance")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	user := models.User{Name: "Ann", Email: "a@x.com"}
	require.NoError(t, st.CreateUser(ctx, &user))
	seedEvent(t, st, user.ID, music.ID)

	assert.ErrorIs(t, cats.Delete(ctx, music.ID), apperr.ErrConflict)
	require.NoError(t, cats.Delete(ctx, theatre.ID))
	assert.ErrorIs(t, cats.Delete(ctx, theatre.ID), apperr.ErrNotFound)

	list, err := cats.List(ctx, firstPage(t))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := cats.Get(ctx, music.ID)
	require.NoError(t, err)
	assert.Equal(t, "Music", got.Name)
}

func TestCompilations(t *testing.T) {
	st := storetest.Open(t)
	comps := catalog.NewCompilations(st, events.NewService(st, nil, "ewm-main-service", events.WithLogger(quiet)), quiet)

	user := models.User{Name: "Ann", Email: "a@x.com"}
	require.NoError(t, st.CreateUser(ctx, &user))
	cat := models.Category{Name: "Music"}
	require.NoError(t, st.CreateCategory(ctx, &cat))
	first := seedEvent(t, st, user.ID, cat.ID)
	second := seedEvent(t, st, user.ID, cat.ID)

	c, err := comps.Create(ctx, "Summer", true, []uint{first, 999})
	require.NoError(t, err)
	require.Len(t, c.Events, 1)
	assert.Equal(t, first, c.Events[0].ID)
	assert.Equal(t, "Ann", c.Events[0].Initiator.Name)

	title := "Autumn"
	replaced := []uint{second}
	c, err = comps.Update(ctx, c.ID, catalog.CompilationPatch{Title: &title, Events: &replaced})
	require.NoError(t, err)
	assert.Equal(t, "Autumn", c.Title)
	assert.True(t, c.Pinned)
	require.Len(t, c.Events, 1)
	assert.Equal(t, second, c.Events[0].ID)

	empty, err := comps.Create(ctx, "Empty", false, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty.Events)
	assert.Empty(t, empty.Events)

	pinned := true
	list, err := comps.List(ctx, &pinned, firstPage(t))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Autumn", list[0].Title)

	require.NoError(t, comps.Delete(ctx, c.ID))
	_, err = comps.Get(ctx, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, comps.Delete(ctx, c.ID), apperr.ErrNotFound)
}
