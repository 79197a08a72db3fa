package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"whisky-collection/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRepoFunc returns a repository over an empty, schema-less database.
type newRepoFunc func(t *testing.T) WhiskyRepository

// runWhiskyRepositoryTests exercises behaviour every backend must share.
func runWhiskyRepositoryTests(t *testing.T, newRepo newRepoFunc) {
	t.Run("EnsureSchema seeds an empty table once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		seeded, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(model.SeedWhiskies), seeded)

		countAfterFirst, err := repo.Count(ctx)
		require.NoError(t, err)

		seeded, err = repo.EnsureSchema(ctx)
		require.NoError(t, err)
		assert.Zero(t, seeded)

		countAfterSecond, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, countAfterFirst, countAfterSecond)

		whiskies, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, whiskies, 2)
		assert.Equal(t, "Bowmore 15 Years Laimrig", whiskies[0].Name)
		assert.Equal(t, "Scotland, Islay", whiskies[0].Origin)
		assert.Equal(t, "Talisker 57° North", whiskies[1].Name)
		assert.Equal(t, "Scotland, Island", whiskies[1].Origin)
	})

	t.Run("EnsureSchema leaves a populated table alone", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)

		whiskies, err := repo.GetAll(ctx)
		require.NoError(t, err)
		for _, w := range whiskies {
			require.NoError(t, repo.Delete(ctx, w.ID))
		}
		_, err = repo.Create(ctx, "Lagavulin 16", "Scotland, Islay")
		require.NoError(t, err)

		seeded, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)
		assert.Zero(t, seeded)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Create then GetByID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)

		existing, err := repo.GetAll(ctx)
		require.NoError(t, err)

		tests := []struct {
			name   string
			origin string
		}{
			{name: "Jameson", origin: "Ireland"},
			{name: "Yamazaki 12", origin: "Japan"},
			{name: "Ardbeg Uigeadail", origin: "Scotland, Islay"},
		}

		seen := make(map[int64]bool)
		for _, w := range existing {
			seen[w.ID] = true
		}

		for _, tt := range tests {
			created, err := repo.Create(ctx, tt.name, tt.origin)
			require.NoError(t, err)
			require.True(t, created.IsPersisted())
			assert.False(t, seen[created.ID], "ID %d reused", created.ID)
			seen[created.ID] = true

			fetched, err := repo.GetByID(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, fetched.ID)
			assert.Equal(t, tt.name, fetched.Name)
			assert.Equal(t, tt.origin, fetched.Origin)
		}
	})

	t.Run("GetByID unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)

		whisky, err := repo.GetByID(ctx, 999999)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrWhiskyNotFound)
		assert.Nil(t, whisky)
	})

	t.Run("Update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)

		created, err := repo.Create(ctx, "Jameson", "Ireland")
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, "Jameson Black Barrel", "Ireland, Cork")
		require.NoError(t, err)
		assert.Equal(t, &model.Whisky{ID: created.ID, Name: "Jameson Black Barrel", Origin: "Ireland, Cork"}, updated)

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, fetched)

		missing, err := repo.Update(ctx, 999999, "Ghost", "Nowhere")
		assert.ErrorIs(t, err, model.ErrWhiskyNotFound)
		assert.Nil(t, missing)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)

		created, err := repo.Create(ctx, "Jameson", "Ireland")
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))
		require.NoError(t, repo.Delete(ctx, created.ID))
		require.NoError(t, repo.Delete(ctx, 999999))

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, model.ErrWhiskyNotFound)
	})

	t.Run("Concurrent creates get distinct IDs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.EnsureSchema(ctx)
		require.NoError(t, err)

		const workers = 8
		ids := make(chan int64, workers)
		errs := make(chan error, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w, err := repo.Create(ctx, "Redbreast 12", "Ireland")
				if err != nil {
					errs <- err
					return
				}
				ids <- w.ID
			}()
		}
		wg.Wait()
		close(ids)
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		unique := make(map[int64]struct{})
		for id := range ids {
			unique[id] = struct{}{}
		}
		assert.Len(t, unique, workers)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, workers+len(model.SeedWhiskies), count)
	})

	t.Run("Cancelled context reports store unavailable", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.GetAll(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
	})
}
