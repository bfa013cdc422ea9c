package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_id"` // nil for top-level comments
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	LikeCount int64     `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// CommentLike records a user liking a comment. One row per (user, comment).
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_comment_like_user_comment" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CommentID uint      `gorm:"not null;index;uniqueIndex:idx_comment_like_user_comment" json:"comment_id"`
	Comment   Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
