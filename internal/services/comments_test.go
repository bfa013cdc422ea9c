package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redsocial/internal/models"
)

func TestCreateCommentAndReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	b := env.createUser(t, "beto")
	post := env.createPost(t, a.ID, "p")

	top := env.comment(t, post.ID, a.ID, "  primero  ", nil)
	assert.Equal(t, "primero", top.Text)
	assert.Nil(t, top.ParentID)
	assert.Equal(t, "ana", top.Author.Username)
	assert.Equal(t, "Ana", top.Author.Name)

	reply := env.comment(t, post.ID, b.ID, "respuesta", &top.ID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	// A reply to a reply hangs off the top-level comment.
	nested := env.comment(t, post.ID, a.ID, "anidada", &reply.ID)
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, top.ID, *nested.ParentID)

	assert.EqualValues(t, 3, env.reload(t, post.ID).CommentCount)

	threads, err := env.comments.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Replies, 2)
}

func TestCreateCommentErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	post := env.createPost(t, a.ID, "p")
	other := env.createPost(t, a.ID, "otro")
	foreign := env.comment(t, other.ID, a.ID, "en otro post", nil)

	tests := []struct {
		name string
		in   CreateCommentInput
		want error
	}{
		{"missing post id", CreateCommentInput{UserID: a.ID, Text: "x"}, ErrInvalidArgument},
		{"missing user id", CreateCommentInput{PostID: post.ID, Text: "x"}, ErrInvalidArgument},
		{"blank text", CreateCommentInput{PostID: post.ID, UserID: a.ID, Text: "   "}, ErrInvalidArgument},
		{"html markup", CreateCommentInput{PostID: post.ID, UserID: a.ID, Text: "<img src=x>"}, ErrInvalidArgument},
		{"unknown post", CreateCommentInput{PostID: 999, UserID: a.ID, Text: "x"}, ErrNotFound},
		{"unknown user", CreateCommentInput{PostID: post.ID, UserID: 999, Text: "x"}, ErrNotFound},
		{"unknown parent", CreateCommentInput{PostID: post.ID, UserID: a.ID, Text: "x", ParentID: ptr(uint(999))}, ErrNotFound},
		{"parent on other post", CreateCommentInput{PostID: post.ID, UserID: a.ID, Text: "x", ParentID: &foreign.ID}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.comments.CreateComment(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, env.reload(t, post.ID).CommentCount, "failed creates leave the counter alone")
}

func TestCreateCommentKeepsTextVerbatim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	post := env.createPost(t, a.ID, "p")

	inputs := []string{
		"if a<b then c",
		"<3 this",
		"Tom & Jerry",
		`it's "quoted"`,
		"2 < 3 and 5 > 4",
	}
	for _, text := range inputs {
		view := env.comment(t, post.ID, a.ID, text, nil)
		assert.Equal(t, text, view.Text)

		var stored models.Comment
		require.NoError(t, env.db.Take(&stored, view.ID).Error)
		assert.Equal(t, text, stored.Text)
	}

	threads, err := env.comments.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, threads, len(inputs))
	got := make([]string, 0, len(threads))
	for _, node := range threads {
		got = append(got, node.Text)
	}
	assert.ElementsMatch(t, inputs, got)
}

func TestListCommentsOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	b := env.createUser(t, "beto")
	post := env.createPost(t, a.ID, "p")

	first := env.comment(t, post.ID, a.ID, "first", nil)
	second := env.comment(t, post.ID, b.ID, "second", nil)
	r1 := env.comment(t, post.ID, b.ID, "r1", &first.ID)
	r2 := env.comment(t, post.ID, a.ID, "r2", &first.ID)

	threads, err := env.comments.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	assert.Equal(t, second.ID, threads[0].ID, "newest top-level comment first")
	assert.Empty(t, threads[0].Replies)
	assert.NotNil(t, threads[0].Replies)

	assert.Equal(t, first.ID, threads[1].ID)
	require.Len(t, threads[1].Replies, 2)
	assert.Equal(t, r1.ID, threads[1].Replies[0].ID, "replies oldest first")
	assert.Equal(t, r2.ID, threads[1].Replies[1].ID)
	assert.Equal(t, "beto", threads[1].Replies[0].Author.Username)

	empty, err := env.comments.ListComments(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestToggleCommentLike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	b := env.createUser(t, "beto")
	post := env.createPost(t, a.ID, "p")
	c := env.comment(t, post.ID, a.ID, "hola", nil)

	res, err := env.comments.ToggleCommentLike(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Likes)
	assert.True(t, res.HasLike)

	res, err = env.comments.ToggleCommentLike(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Likes)

	res, err = env.comments.ToggleCommentLike(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Likes)
	assert.False(t, res.HasLike)

	_, err = env.comments.ToggleCommentLike(ctx, 999, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.comments.ToggleCommentLike(ctx, c.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLikedCommentIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	b := env.createUser(t, "beto")
	post := env.createPost(t, a.ID, "p")
	other := env.createPost(t, a.ID, "q")

	c1 := env.comment(t, post.ID, a.ID, "uno", nil)
	c2 := env.comment(t, post.ID, a.ID, "dos", nil)
	elsewhere := env.comment(t, other.ID, a.ID, "tres", nil)
	for _, id := range []uint{c1.ID, elsewhere.ID} {
		_, err := env.comments.ToggleCommentLike(ctx, id, b.ID)
		require.NoError(t, err)
	}

	liked, err := env.comments.LikedCommentIDs(ctx, post.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{c1.ID: true}, liked)
	assert.False(t, liked[c2.ID])
}

func TestDeleteCommentCascadesReplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	b := env.createUser(t, "beto")
	post := env.createPost(t, a.ID, "p")

	top := env.comment(t, post.ID, a.ID, "top", nil)
	const replies = 3
	for i := 0; i < replies; i++ {
		r := env.comment(t, post.ID, b.ID, "reply", &top.ID)
		_, err := env.comments.ToggleCommentLike(ctx, r.ID, a.ID)
		require.NoError(t, err)
	}
	keep := env.comment(t, post.ID, b.ID, "keep", nil)
	_, err := env.comments.ToggleCommentLike(ctx, top.ID, b.ID)
	require.NoError(t, err)

	before := env.reload(t, post.ID).CommentCount
	require.EqualValues(t, replies+2, before)

	require.NoError(t, env.comments.DeleteComment(ctx, top.ID, a.ID))

	assert.Equal(t, before-1, env.reload(t, post.ID).CommentCount)
	assert.EqualValues(t, 1, env.count(t, &models.Comment{}, "post_id = ?", post.ID))
	assert.EqualValues(t, 1, env.count(t, &models.Comment{}, "id = ?", keep.ID))
	assert.Zero(t, env.count(t, &models.CommentLike{}, "1 = 1"))
}

func TestDeleteCommentPermissionLeavesCommentIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	b := env.createUser(t, "beto")
	post := env.createPost(t, a.ID, "p")
	c := env.comment(t, post.ID, a.ID, "mine", nil)

	err := env.comments.DeleteComment(ctx, c.ID, b.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.EqualValues(t, 1, env.count(t, &models.Comment{}, "id = ?", c.ID))
	assert.EqualValues(t, 1, env.reload(t, post.ID).CommentCount)

	assert.ErrorIs(t, env.comments.DeleteComment(ctx, 999, a.ID), ErrNotFound)
	assert.ErrorIs(t, env.comments.DeleteComment(ctx, c.ID, 0), ErrInvalidArgument)
}

func TestDeleteReplyAndCounterFloor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "ana")
	post := env.createPost(t, a.ID, "p")
	top := env.comment(t, post.ID, a.ID, "top", nil)
	reply := env.comment(t, post.ID, a.ID, "reply", &top.ID)

	require.NoError(t, env.comments.DeleteComment(ctx, reply.ID, a.ID))
	assert.EqualValues(t, 1, env.count(t, &models.Comment{}, "id = ?", top.ID))
	assert.EqualValues(t, 1, env.reload(t, post.ID).CommentCount)

	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("comment_count", 0).Error)
	require.NoError(t, env.comments.DeleteComment(ctx, top.ID, a.ID))
	assert.Zero(t, env.reload(t, post.ID).CommentCount)
}
