package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "eligibility:student:1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "eligibility:student:1", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "eligibility:student:1"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "eligibility:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
