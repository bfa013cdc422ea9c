package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"redsocial/internal/models"
	"redsocial/internal/observability"
)

type CreateCommentInput struct {
	PostID   uint   `json:"post_id" binding:"required"`
	UserID   uint   `json:"user_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// CommentView is a comment joined with its author's public profile.
type CommentView struct {
	ID        uint           `json:"id"`
	PostID    uint           `json:"post_id"`
	ParentID  *uint          `json:"parent_id"`
	Text      string         `json:"text"`
	LikeCount int64          `json:"like_count"`
	CreatedAt time.Time      `json:"created_at"`
	Author    models.Profile `json:"author"`
}

// ThreadNode is a top-level comment with its replies, oldest first.
type ThreadNode struct {
	CommentView
	Replies []CommentView `json:"replies"`
}

type CommentLikeResult struct {
	Likes   int64        `json:"likes"`
	HasLike bool         `json:"has_like"`
	Action  ToggleAction `json:"-"`
}

// CommentService stores two-level comment threads and comment likes.
type CommentService struct {
	db       *gorm.DB
	profiles *ProfileProvider
	metrics  *observability.Metrics
}

func NewCommentService(db *gorm.DB, profiles *ProfileProvider, metrics *observability.Metrics) *CommentService {
	return &CommentService{db: db, profiles: profiles, metrics: metrics}
}

func newCommentView(c *models.Comment, author models.Profile) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Text:      c.Text,
		LikeCount: c.LikeCount,
		CreatedAt: c.CreatedAt,
		Author:    author,
	}
}

// CreateComment adds a comment or a reply. Replies to replies are attached
// to the top-level comment so threads never nest deeper than one level.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*CommentView, error) {
	if in.PostID == 0 || in.UserID == 0 {
		return nil, invalidf("post_id and user_id are required")
	}
	text, err := plainText("text", in.Text)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, invalidf("comment text must not be empty")
	}

	comment := models.Comment{PostID: in.PostID, UserID: in.UserID, Text: text}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockActivePost(tx, in.PostID); err != nil {
			return err
		}
		var user models.User
		if err := tx.Select("id").Take(&user, in.UserID).Error; err != nil {
			return notFoundOr(err, "user %d", in.UserID)
		}

		if in.ParentID != nil && *in.ParentID != 0 {
			var parent models.Comment
			if err := tx.Select("id", "post_id", "parent_id").Take(&parent, *in.ParentID).Error; err != nil {
				return notFoundOr(err, "parent comment %d", *in.ParentID)
			}
			if parent.PostID != in.PostID {
				return invalidf("parent comment %d belongs to another post", parent.ID)
			}
			root := parent.ID
			if parent.ParentID != nil {
				root = *parent.ParentID
			}
			comment.ParentID = &root
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", in.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	author, err := s.profiles.PublicProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	view := newCommentView(&comment, author)
	return &view, nil
}

// ListComments returns the post's threads: top-level comments newest first,
// each with its replies oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]ThreadNode, error) {
	db := s.db.WithContext(ctx)

	var top []models.Comment
	if err := db.Preload("User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at DESC, id DESC").
		Find(&top).Error; err != nil {
		return nil, err
	}
	var replies []models.Comment
	if err := db.Preload("User").
		Where("post_id = ? AND parent_id IS NOT NULL", postID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error; err != nil {
		return nil, err
	}

	byParent := make(map[uint][]CommentView, len(top))
	for i := range replies {
		r := &replies[i]
		byParent[*r.ParentID] = append(byParent[*r.ParentID], newCommentView(r, r.User.Profile()))
	}

	threads := make([]ThreadNode, 0, len(top))
	for i := range top {
		c := &top[i]
		node := ThreadNode{CommentView: newCommentView(c, c.User.Profile()), Replies: byParent[c.ID]}
		if node.Replies == nil {
			node.Replies = []CommentView{}
		}
		threads = append(threads, node)
	}
	return threads, nil
}

// ToggleCommentLike likes the comment for the user, or removes the like.
func (s *CommentService) ToggleCommentLike(ctx context.Context, commentID, userID uint) (*CommentLikeResult, error) {
	if userID == 0 {
		return nil, invalidf("user_id is required")
	}

	var result CommentLikeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := lockRow(tx, &comment, commentID); err != nil {
			return notFoundOr(err, "comment %d", commentID)
		}

		var existing models.CommentLike
		err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).Take(&existing).Error
		switch {
		case isMissing(err):
			if err := tx.Create(&models.CommentLike{UserID: userID, CommentID: commentID}).Error; err != nil {
				return err
			}
			result.Action = ActionAdded
			result.HasLike = true
		case err != nil:
			return err
		default:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result.Action = ActionRemoved
		}

		likes, err := RecomputeCommentLikes(ctx, tx, commentID)
		result.Likes = likes
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveToggle("comment_like", string(result.Action))
	return &result, nil
}

// LikedCommentIDs returns the ids of the post's comments the user has liked.
func (s *CommentService) LikedCommentIDs(ctx context.Context, postID, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.CommentLike{}).
		Joins("JOIN comments ON comments.id = comment_likes.comment_id").
		Where("comment_likes.user_id = ? AND comments.post_id = ?", userID, postID).
		Pluck("comment_likes.comment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	liked := make(map[uint]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// DeleteComment removes the author's comment with its replies and all their
// likes. The post's comment_count drops by one, never below zero.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	if userID == 0 {
		return invalidf("user_id is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id", "post_id", "user_id").Take(&comment, commentID).Error; err != nil {
			return notFoundOr(err, "comment %d", commentID)
		}
		if comment.UserID != userID {
			return permissionDeniedf("only the author can delete comment %d", commentID)
		}

		ids := []uint{comment.ID}
		var replyIDs []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		ids = append(ids, replyIDs...)

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Comment{}, comment.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count > 0 THEN comment_count - 1 ELSE 0 END")).Error
	})
}
