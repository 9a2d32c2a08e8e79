package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/internal/testutil"
)

// clock 可手动推进的时钟
type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *clock) Option() service.Option  { return service.WithClock(c.Now) }

type fixture struct {
	db    *gorm.DB
	store *repository.Store
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	return &fixture{db: db, store: repository.NewStore(db), clock: newClock()}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{
		Name:           name,
		Surname:        "Doe",
		Username:       name,
		Email:          name + "@example.com",
		UserType:       model.UserTypeRegular,
		HashedPassword: "x",
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

var hashSeq int

func (f *fixture) posting(t *testing.T, ownerID int64) *model.Posting {
	t.Helper()
	hashSeq++
	p := &model.Posting{
		Hash:            fmt.Sprintf("h%011d", hashSeq),
		UserID:          ownerID,
		Title:           "Go engineer",
		PostDescription: "Build services",
		Category:        "engineering",
		Status:          model.PostingStatusActive,
	}
	require.NoError(t, f.store.Postings().Create(context.Background(), p))
	return p
}

func i64(v int64) *int64   { return &v }
func str(v string) *string { return &v }
