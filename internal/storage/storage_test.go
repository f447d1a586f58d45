package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every store implementation available in this environment.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()

	out := map[string]func(t *testing.T) Store{
		"memory": func(_ *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := Open(context.Background(), Options{Driver: DriverSQLite})
			require.NoError(t, err)
			return s
		},
	}

	if addr := os.Getenv("TRIAGE_TEST_REDIS_ADDR"); addr != "" {
		out["redis"] = func(t *testing.T) Store {
			s, err := Open(context.Background(), Options{
				Driver:    DriverRedis,
				RedisAddr: addr,
				RedisTTL:  time.Minute,
			})
			require.NoError(t, err)
			return s
		}
	}

	return out
}

func classification(subject string, category model.Category, origin model.Origin) model.Classification {
	rec := model.Record{Subject: subject, Snippet: "snippet for " + subject, Sender: "a@example.com"}
	return model.Classification{
		Identity:     rec.Fingerprint(),
		Record:       rec,
		Category:     category,
		Origin:       origin,
		Confidence:   0.8,
		Reason:       "test",
		ClassifiedAt: time.Now(),
	}
}

func TestStoreContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("get missing", func(t *testing.T) {
				s := open(t)
				defer func() { _ = s.Close() }()

				_, err := s.Get(ctx, "nope")
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrNotFound)
			})

			t.Run("save and get", func(t *testing.T) {
				s := open(t)
				defer func() { _ = s.Close() }()

				c := classification("Interview Invitation", model.CategoryUrgent, model.OriginRule)
				c.Record.ID = "msg-1"
				require.NoError(t, s.Save(ctx, c))

				got, err := s.Get(ctx, c.Identity)
				require.NoError(t, err)
				assert.Equal(t, c.Identity, got.Identity)
				assert.Equal(t, c.Record, got.Record)
				assert.Equal(t, model.CategoryUrgent, got.Category)
				assert.Equal(t, model.OriginRule, got.Origin)
				assert.InDelta(t, 0.8, got.Confidence, 0.0001)
				assert.Equal(t, "test", got.Reason)
				assert.WithinDuration(t, c.ClassifiedAt, got.ClassifiedAt, time.Second)
			})

			t.Run("failed entries", func(t *testing.T) {
				s := open(t)
				defer func() { _ = s.Close() }()

				c := classification("Team Standup Notes", "", model.OriginFailed)
				require.NoError(t, s.Save(ctx, c))

				got, err := s.Get(ctx, c.Identity)
				require.NoError(t, err)
				assert.True(t, got.Failed())
				assert.Equal(t, model.FailedLabel, got.Label())
			})

			t.Run("override is protected", func(t *testing.T) {
				s := open(t)
				defer func() { _ = s.Close() }()

				c := classification("Big Sale", model.CategoryIgnore, model.OriginRule)
				require.NoError(t, s.Save(ctx, c))

				override := c
				override.Category = model.CategoryUrgent
				override.Origin = model.OriginUserOverride
				require.NoError(t, s.Save(ctx, override))

				for _, origin := range []model.Origin{model.OriginRule, model.OriginFallback, model.OriginFailed} {
					auto := c
					auto.Origin = origin
					if origin == model.OriginFailed {
						auto.Category = ""
					}
					err := s.Save(ctx, auto)
					assert.ErrorIs(t, err, ErrOverrideProtected, "origin %s", origin)
				}

				again := override
				again.Category = model.CategoryReadLater
				require.NoError(t, s.Save(ctx, again))

				got, err := s.Get(ctx, c.Identity)
				require.NoError(t, err)
				assert.Equal(t, model.CategoryReadLater, got.Category)
				assert.Equal(t, model.OriginUserOverride, got.Origin)
			})

			t.Run("list keeps first insertion order", func(t *testing.T) {
				s := open(t)
				defer func() { _ = s.Close() }()

				a := classification("A", model.CategoryUrgent, model.OriginRule)
				b := classification("B", model.CategoryIgnore, model.OriginRule)
				c := classification("C", model.CategoryReadLater, model.OriginFallback)
				for _, x := range []model.Classification{a, b, c} {
					require.NoError(t, s.Save(ctx, x))
				}

				updated := a
				updated.Category = model.CategoryIgnore
				updated.Origin = model.OriginUserOverride
				require.NoError(t, s.Save(ctx, updated))

				list, err := s.List(ctx)
				require.NoError(t, err)
				require.Len(t, list, 3)
				assert.Equal(t, a.Identity, list[0].Identity)
				assert.Equal(t, model.CategoryIgnore, list[0].Category)
				assert.Equal(t, b.Identity, list[1].Identity)
				assert.Equal(t, c.Identity, list[2].Identity)
			})

			t.Run("rejects invalid classifications", func(t *testing.T) {
				s := open(t)
				defer func() { _ = s.Close() }()

				bad := []model.Classification{
					{Identity: "", Category: model.CategoryUrgent, Origin: model.OriginRule},
					{Identity: "x", Category: "Spam", Origin: model.OriginRule},
					{Identity: "x", Category: model.CategoryUrgent, Origin: "MAGIC"},
					{Identity: "x", Category: model.CategoryUrgent, Origin: model.OriginFailed},
				}
				for _, c := range bad {
					assert.ErrorIs(t, s.Save(ctx, c), ErrInvalidClassification)
				}

				list, err := s.List(ctx)
				require.NoError(t, err)
				assert.Empty(t, list)
			})

			t.Run("concurrent saves", func(t *testing.T) {
				s := open(t)
				defer func() { _ = s.Close() }()

				var wg sync.WaitGroup
				for i := 0; i < 20; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						c := classification(string(rune('a'+i)), model.CategoryReadLater, model.OriginFallback)
						assert.NoError(t, s.Save(ctx, c))
					}(i)
				}
				wg.Wait()

				list, err := s.List(ctx)
				require.NoError(t, err)
				assert.Len(t, list, 20)
			})
		})
	}
}

func TestSQLiteStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "triage.db")

	first, err := NewSQLiteStore(path, NewSessionID())
	require.NoError(t, err)
	require.NoError(t, first.Migrate(ctx))
	defer func() { _ = first.Close() }()

	c := classification("Monthly Statement", model.CategoryReadLater, model.OriginRule)
	require.NoError(t, first.Save(ctx, c))

	second, err := NewSQLiteStore(path, NewSessionID())
	require.NoError(t, err)
	require.NoError(t, second.Migrate(ctx))
	defer func() { _ = second.Close() }()

	_, err = second.Get(ctx, c.Identity)
	assert.ErrorIs(t, err, common.ErrNotFound)

	list, err := second.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := first.Get(ctx, c.Identity)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryReadLater, got.Category)
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(MemoryDSN, "session")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, Options{Driver: "postgres"})
	require.Error(t, err)

	_, err = NewSQLiteStore(MemoryDSN, "")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = NewRedisStore(ctx, RedisOptions{SessionID: "s"})
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
