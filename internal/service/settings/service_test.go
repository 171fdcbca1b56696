package settings

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/citamed/scheduling-api/internal/model"
)

type fakeRepo struct {
	values map[string]string
	reads  int
}

func (f *fakeRepo) Get(_ context.Context, key string) (*model.Setting, error) {
	f.reads++
	v, ok := f.values[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &model.Setting{Key: key, Value: v}, nil
}

func (f *fakeRepo) List(context.Context) ([]*model.Setting, error) { return nil, nil }

func (f *fakeRepo) Upsert(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func TestBool(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{
		"on":      "true",
		"on_si":   "sí",
		"on_one":  "1",
		"off":     "false",
		"garbage": "tal vez",
	}}
	s := NewService(repo, time.Minute)
	ctx := context.Background()

	assert.True(t, s.Bool(ctx, "on", false))
	assert.True(t, s.Bool(ctx, "on_si", false))
	assert.True(t, s.Bool(ctx, "on_one", false))
	assert.False(t, s.Bool(ctx, "off", true))
	assert.True(t, s.Bool(ctx, "garbage", true), "unparseable falls back to default")
	assert.True(t, s.Bool(ctx, "missing", true))
	assert.False(t, s.Bool(ctx, "missing", false))
}

func TestInt(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{
		"ttl": " 45 ",
		"bad": "pronto",
	}}
	s := NewService(repo, time.Minute)
	ctx := context.Background()

	assert.Equal(t, 45, s.Int(ctx, "ttl", 30))
	assert.Equal(t, 30, s.Int(ctx, "bad", 30))
	assert.Equal(t, 30, s.Int(ctx, "missing", 30))
}

func TestString(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{
		"template": "Hola {paciente}",
		"empty":    "",
	}}
	s := NewService(repo, time.Minute)
	ctx := context.Background()

	assert.Equal(t, "Hola {paciente}", s.String(ctx, "template", "def"))
	assert.Equal(t, "def", s.String(ctx, "empty", "def"))
	assert.Equal(t, "def", s.String(ctx, "missing", "def"))
}

func TestCachingAndInvalidate(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{"ttl": "45"}}
	s := NewService(repo, time.Minute)
	ctx := context.Background()

	assert.Equal(t, 45, s.Int(ctx, "ttl", 30))
	assert.Equal(t, 45, s.Int(ctx, "ttl", 30))
	assert.Equal(t, 1, repo.reads, "second read served from cache")

	repo.values["ttl"] = "15"
	assert.Equal(t, 45, s.Int(ctx, "ttl", 30), "stale until invalidated")

	s.Invalidate()
	assert.Equal(t, 15, s.Int(ctx, "ttl", 30))
}
