package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/service"
)

func TestTrackView_UserWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.posting(t, owner.ID)
	tracker := service.NewViewTracker(f.store, f.clock.Option())

	viewer := i64(42)
	unique, err := tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, UserID: viewer})
	require.NoError(t, err)
	assert.True(t, unique)

	f.clock.Advance(time.Hour)
	unique, err = tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, UserID: viewer})
	require.NoError(t, err)
	assert.False(t, unique)

	f.clock.Advance(service.UniqueViewWindow)
	unique, err = tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, UserID: viewer})
	require.NoError(t, err)
	assert.True(t, unique)

	got, err := f.store.Postings().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Views)
}

func TestTrackView_StaleViewIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.posting(t, owner.ID)
	tracker := service.NewViewTracker(f.store, f.clock.Option())

	viewer := i64(7)
	stale := f.clock.Now().Add(-25 * time.Hour)
	require.NoError(t, f.store.Views().Create(ctx, &model.PostingView{PostingID: p.ID, UserID: viewer, ViewedAt: stale}))

	unique, err := tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, UserID: viewer})
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestTrackView_SessionAndAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.posting(t, owner.ID)
	tracker := service.NewViewTracker(f.store, f.clock.Option())

	sid := str("visitor-abc")
	unique, err := tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, SessionID: sid})
	require.NoError(t, err)
	assert.True(t, unique)
	unique, err = tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, SessionID: sid})
	require.NoError(t, err)
	assert.False(t, unique)

	// 无身份时总是独立浏览
	ip := str("10.0.0.1")
	for i := 0; i < 2; i++ {
		unique, err = tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, IPAddress: ip})
		require.NoError(t, err)
		assert.True(t, unique)
	}

	// 登录用户优先于 session 去重
	unique, err = tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, UserID: i64(99), SessionID: sid})
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestTrackView_DailyMetricsMatchViewLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.posting(t, owner.ID)
	tracker := service.NewViewTracker(f.store, f.clock.Option())

	for _, uid := range []int64{1, 2, 1, 3, 2} {
		_, err := tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, UserID: i64(uid)})
		require.NoError(t, err)
	}

	m, err := f.store.Metrics().Get(ctx, p.ID, f.clock.Now())
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(5), m.ViewsCount)
	assert.Equal(t, int64(3), m.UniqueViewsCount)

	logged, err := f.store.Views().CountByPosting(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ViewsCount, logged)
}

func TestTrackView_UnknownPosting(t *testing.T) {
	f := newFixture(t)
	tracker := service.NewViewTracker(f.store, f.clock.Option())

	_, err := tracker.TrackView(context.Background(), service.ViewInput{PostingID: 12345, UserID: i64(1)})
	assert.ErrorIs(t, err, service.ErrNotFound)

	cnt, err := f.store.Views().CountByPosting(context.Background(), 12345)
	require.NoError(t, err)
	assert.Zero(t, cnt)
}

func TestTrackView_RollsBackOnMetricFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.posting(t, owner.ID)
	tracker := service.NewViewTracker(f.store, f.clock.Option())

	require.NoError(t, f.db.Migrator().DropTable(&model.PostingMetric{}))

	_, err := tracker.TrackView(ctx, service.ViewInput{PostingID: p.ID, UserID: i64(9)})
	require.Error(t, err)

	cnt, err := f.store.Views().CountByPosting(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, cnt)
	got, err := f.store.Postings().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Views)
}
