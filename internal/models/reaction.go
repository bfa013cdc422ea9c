package models

import (
	"time"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Reaction is a user's like or dislike on a post. One row per (user, post).
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index;uniqueIndex:idx_reaction_user_post" json:"user_id"`
	User      User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID    uint         `gorm:"not null;index;uniqueIndex:idx_reaction_user_post" json:"post_id"`
	Post      Post         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Kind      ReactionKind `gorm:"size:10;not null;index" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&PostImage{},
		&Comment{},
		&CommentLike{},
		&Reaction{},
		&Favorite{},
	}
}
