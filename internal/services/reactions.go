package services

import (
	"context"

	"gorm.io/gorm"

	"redsocial/internal/models"
	"redsocial/internal/observability"
)

// ToggleAction names the transition a toggle applied.
type ToggleAction string

const (
	ActionAdded    ToggleAction = "added"
	ActionRemoved  ToggleAction = "removed"
	ActionSwitched ToggleAction = "switched"
)

type ReactionResult struct {
	Likes        int64                `json:"likes"`
	Dislikes     int64                `json:"dislikes"`
	UserReaction *models.ReactionKind `json:"user_reaction"`
	Action       ToggleAction         `json:"-"`
}

type FavoriteResult struct {
	Favorites  int64        `json:"favorites"`
	IsFavorite bool         `json:"is_favorite"`
	Action     ToggleAction `json:"-"`
}

type ReactionState struct {
	Likes        int64                `json:"likes"`
	Dislikes     int64                `json:"dislikes"`
	Favorites    int64                `json:"favorites"`
	UserReaction *models.ReactionKind `json:"user_reaction"`
	IsFavorite   bool                 `json:"is_favorite"`
}

// ReactionService applies like/dislike and favorite toggles on posts.
type ReactionService struct {
	db      *gorm.DB
	metrics *observability.Metrics
}

func NewReactionService(db *gorm.DB, metrics *observability.Metrics) *ReactionService {
	return &ReactionService{db: db, metrics: metrics}
}

// ApplyReaction toggles the user's reaction of the given kind on a post.
// No reaction adds it, the same kind removes it and the other kind switches it.
func (s *ReactionService) ApplyReaction(ctx context.Context, postID, userID uint, kind models.ReactionKind) (*ReactionResult, error) {
	if userID == 0 {
		return nil, invalidf("user_id is required")
	}
	if !kind.Valid() {
		return nil, invalidf("reaction kind must be %q or %q", models.ReactionLike, models.ReactionDislike)
	}

	var result ReactionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockActivePost(tx, postID); err != nil {
			return err
		}

		var existing models.Reaction
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).Take(&existing).Error
		switch {
		case isMissing(err):
			if err := tx.Create(&models.Reaction{UserID: userID, PostID: postID, Kind: kind}).Error; err != nil {
				return err
			}
			result.Action = ActionAdded
			result.UserReaction = &kind
		case err != nil:
			return err
		case existing.Kind == kind:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result.Action = ActionRemoved
		default:
			if err := tx.Model(&existing).Update("kind", kind).Error; err != nil {
				return err
			}
			result.Action = ActionSwitched
			result.UserReaction = &kind
		}

		counters, err := RecomputePostCounters(ctx, tx, postID)
		if err != nil {
			return err
		}
		result.Likes = counters.Likes
		result.Dislikes = counters.Dislikes
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveToggle("post_reaction", string(result.Action))
	return &result, nil
}

// ApplyFavorite saves the post for the user, or un-saves it if already saved.
func (s *ReactionService) ApplyFavorite(ctx context.Context, postID, userID uint) (*FavoriteResult, error) {
	if userID == 0 {
		return nil, invalidf("user_id is required")
	}

	var result FavoriteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockActivePost(tx, postID); err != nil {
			return err
		}

		var existing models.Favorite
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).Take(&existing).Error
		switch {
		case isMissing(err):
			if err := tx.Create(&models.Favorite{UserID: userID, PostID: postID}).Error; err != nil {
				return err
			}
			result.Action = ActionAdded
			result.IsFavorite = true
		case err != nil:
			return err
		default:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result.Action = ActionRemoved
		}

		counters, err := RecomputePostCounters(ctx, tx, postID)
		if err != nil {
			return err
		}
		result.Favorites = counters.Favorites
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveToggle("favorite", string(result.Action))
	return &result, nil
}

// GetReactionState reports a post's counters and the user's own reaction.
// An unknown post yields zero counts rather than an error.
func (s *ReactionService) GetReactionState(ctx context.Context, postID, userID uint) (*ReactionState, error) {
	db := s.db.WithContext(ctx)
	state := &ReactionState{}

	var post models.Post
	err := db.Select("id", "like_count", "favorite_count").Take(&post, postID).Error
	switch {
	case isMissing(err):
		return state, nil
	case err != nil:
		return nil, err
	}
	state.Likes = post.LikeCount
	state.Favorites = post.FavoriteCount

	if state.Dislikes, err = CountDislikes(ctx, db, postID); err != nil {
		return nil, err
	}

	if userID == 0 {
		return state, nil
	}
	var reaction models.Reaction
	err = db.Select("kind").Where("user_id = ? AND post_id = ?", userID, postID).Take(&reaction).Error
	switch {
	case err == nil:
		state.UserReaction = &reaction.Kind
	case !isMissing(err):
		return nil, err
	}
	if state.IsFavorite, err = exists(db, &models.Favorite{}, "user_id = ? AND post_id = ?", userID, postID); err != nil {
		return nil, err
	}
	return state, nil
}
