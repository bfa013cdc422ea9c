package models

import (
	"time"
)

type PostStatus string

const (
	PostStatusActive  PostStatus = "active"
	PostStatusRemoved PostStatus = "removed"
)

type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Cached counters. LikeCount and FavoriteCount are recomputed on every toggle.
	LikeCount     int64 `gorm:"not null;default:0" json:"like_count"`
	CommentCount  int64 `gorm:"not null;default:0" json:"comment_count"`
	FavoriteCount int64 `gorm:"not null;default:0" json:"favorite_count"`

	Status    PostStatus  `gorm:"size:10;not null;default:'active';index" json:"status"`
	Images    []PostImage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// PostImage is one picture attached to a post, ordered by Position.
type PostImage struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	URL      string `gorm:"size:255;not null" json:"url"`
	Position int    `gorm:"not null;default:0" json:"position"`
}
