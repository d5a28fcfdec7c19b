package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/activity-stream-api/internal/models"
)

func TestAllowedModelRepositoryRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAllowedModelRepository(db)

	require.NoError(t, repo.Register(context.Background(), &models.AllowedModel{Name: "Note", Model: "note"}))

	err := repo.Register(context.Background(), &models.AllowedModel{Name: "Note", Model: "project"})
	require.ErrorIs(t, err, ErrDuplicateAllowedModel, "duplicate name must be rejected")

	err = repo.Register(context.Background(), &models.AllowedModel{Name: "Memo", Model: "note"})
	require.ErrorIs(t, err, ErrDuplicateAllowedModel, "duplicate model must be rejected")
}

func TestAllowedModelRepositoryListAndIsAllowed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAllowedModelRepository(db)

	require.NoError(t, repo.Register(context.Background(), &models.AllowedModel{Name: "Project", Model: "project"}))
	require.NoError(t, repo.Register(context.Background(), &models.AllowedModel{Name: "Note", Model: "note"}))

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Note", entries[0].Name, "entries are ordered by name")

	allowed, err := repo.IsAllowed(context.Background(), "note")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = repo.IsAllowed(context.Background(), "gallery")
	require.NoError(t, err)
	require.False(t, allowed)
}
