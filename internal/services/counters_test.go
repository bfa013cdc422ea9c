package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redsocial/internal/models"
)

func TestRecomputePostCountersRepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	post := env.createPost(t, owner.ID, "drift")

	for i, kind := range []models.ReactionKind{models.ReactionLike, models.ReactionLike, models.ReactionDislike} {
		u := env.createUser(t, []string{"ana", "beto", "caro"}[i])
		require.NoError(t, env.db.Create(&models.Reaction{UserID: u.ID, PostID: post.ID, Kind: kind}).Error)
		require.NoError(t, env.db.Create(&models.Favorite{UserID: u.ID, PostID: post.ID}).Error)
	}
	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumns(map[string]interface{}{"like_count": 99, "favorite_count": 42}).Error)

	got, err := RecomputePostCounters(ctx, env.db, post.ID)
	require.NoError(t, err)
	assert.Equal(t, PostCounters{Likes: 2, Dislikes: 1, Favorites: 3}, got)

	stored := env.reload(t, post.ID)
	assert.EqualValues(t, 2, stored.LikeCount)
	assert.EqualValues(t, 3, stored.FavoriteCount)
}

func TestRecomputePostCountersIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	post := env.createPost(t, owner.ID, "idem")
	require.NoError(t, env.db.Create(&models.Reaction{UserID: owner.ID, PostID: post.ID, Kind: models.ReactionLike}).Error)

	first, err := RecomputePostCounters(ctx, env.db, post.ID)
	require.NoError(t, err)
	afterFirst := env.reload(t, post.ID)

	second, err := RecomputePostCounters(ctx, env.db, post.ID)
	require.NoError(t, err)
	afterSecond := env.reload(t, post.ID)

	assert.Equal(t, first, second)
	assert.Equal(t, afterFirst.LikeCount, afterSecond.LikeCount)
	assert.Equal(t, afterFirst.FavoriteCount, afterSecond.FavoriteCount)
}

func TestRecomputeCommentLikes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	fan := env.createUser(t, "fan")
	post := env.createPost(t, owner.ID, "p")
	c := env.comment(t, post.ID, owner.ID, "hola", nil)

	require.NoError(t, env.db.Create(&models.CommentLike{UserID: owner.ID, CommentID: c.ID}).Error)
	require.NoError(t, env.db.Create(&models.CommentLike{UserID: fan.ID, CommentID: c.ID}).Error)

	n, err := RecomputeCommentLikes(ctx, env.db, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var stored models.Comment
	require.NoError(t, env.db.Take(&stored, c.ID).Error)
	assert.EqualValues(t, 2, stored.LikeCount)
}

func TestCountDislikesOnUnknownPost(t *testing.T) {
	env := newTestEnv(t)
	n, err := CountDislikes(context.Background(), env.db, 12345)
	require.NoError(t, err)
	assert.Zero(t, n)
}
