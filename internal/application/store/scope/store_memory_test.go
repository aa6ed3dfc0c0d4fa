package scope

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "memberpanel/pkg/domain"
	"memberpanel/pkg/requestcontext"
)

func TestInMemory_ReplaceKeepsHistory(t *testing.T) {
	store := NewInMemory()
	appID := id.ApplicationID(uuid.New())
	p1 := id.ProvinceID(uuid.New())
	p2 := id.ProvinceID(uuid.New())
	d1 := id.DistrictID(uuid.New())

	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), t0)

	created, err := store.CreateMany(ctx, appID, []id.GeoScope{{ProvinceID: &p1}, {ProvinceID: &p1, DistrictID: &d1}})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, t0, created[0].CreatedAt)
	assert.Equal(t, appID, created[1].ApplicationID)

	t1 := t0.Add(time.Hour)
	ctx = requestcontext.WithTime(context.Background(), t1)
	require.NoError(t, store.SoftDeleteAllForApplication(ctx, appID))
	_, err = store.CreateMany(ctx, appID, []id.GeoScope{{ProvinceID: &p2}})
	require.NoError(t, err)

	active, err := store.ListActiveForApplication(ctx, appID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, p2, *active[0].ProvinceID)

	history, err := store.ListHistory(ctx, appID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, t1, *history[0].DeletedAt)
	assert.Equal(t, t1, *history[1].DeletedAt)
	assert.Nil(t, history[2].DeletedAt)
}

func TestInMemory_ListReturnsCopies(t *testing.T) {
	store := NewInMemory()
	appID := id.ApplicationID(uuid.New())
	p := id.ProvinceID(uuid.New())
	ctx := context.Background()

	_, err := store.CreateMany(ctx, appID, []id.GeoScope{{ProvinceID: &p}})
	require.NoError(t, err)

	rows, err := store.ListActiveForApplication(ctx, appID)
	require.NoError(t, err)
	now := time.Now()
	rows[0].DeletedAt = &now

	again, err := store.ListActiveForApplication(ctx, appID)
	require.NoError(t, err)
	assert.Len(t, again, 1)

	empty, err := store.ListActiveForApplication(ctx, id.ApplicationID(uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
