package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"redsocial/internal/models"
)

// PostCounters are the reaction totals of one post.
type PostCounters struct {
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
	Favorites int64 `json:"favorites"`
}

// RecomputePostCounters counts like reactions and favorites of a post, stores
// them in the post's cached columns and returns them together with the live
// dislike count. It works on a transaction or on the pool and is idempotent.
func RecomputePostCounters(ctx context.Context, tx *gorm.DB, postID uint) (PostCounters, error) {
	var c PostCounters
	q := tx.WithContext(ctx)

	if err := q.Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionLike).
		Count(&c.Likes).Error; err != nil {
		return c, err
	}
	if err := q.Model(&models.Favorite{}).
		Where("post_id = ?", postID).
		Count(&c.Favorites).Error; err != nil {
		return c, err
	}
	if err := q.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"like_count":     c.Likes,
			"favorite_count": c.Favorites,
		}).Error; err != nil {
		return c, err
	}

	dislikes, err := CountDislikes(ctx, tx, postID)
	if err != nil {
		return c, err
	}
	c.Dislikes = dislikes
	return c, nil
}

// RecomputeCommentLikes rewrites a comment's like_count from its like rows.
func RecomputeCommentLikes(ctx context.Context, tx *gorm.DB, commentID uint) (int64, error) {
	var n int64
	q := tx.WithContext(ctx)
	if err := q.Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	if err := q.Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("like_count", n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CountDislikes is always computed live; dislikes have no cached column.
func CountDislikes(ctx context.Context, tx *gorm.DB, postID uint) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionDislike).
		Count(&n).Error
	return n, err
}

// lockRow loads the given columns of dest by primary key, taking a row lock
// where the dialect supports it. SQLite serializes writers on its own.
func lockRow(tx *gorm.DB, dest interface{}, id uint, columns ...string) error {
	if len(columns) == 0 {
		columns = []string{"id"}
	}
	q := tx.Select(columns)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q.Take(dest, id).Error
}

// lockActivePost locks a post that is about to change. Removed posts are
// hidden from every listing and are reported as missing.
func lockActivePost(tx *gorm.DB, postID uint) error {
	var post models.Post
	if err := lockRow(tx, &post, postID, "id", "status"); err != nil {
		return notFoundOr(err, "post %d", postID)
	}
	if post.Status != models.PostStatusActive {
		return notFoundf("post %d", postID)
	}
	return nil
}

func exists(tx *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func isMissing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
