package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"redsocial/internal/models"
	"redsocial/internal/storage"
)

// MaxPostImages is the number of pictures a post may carry.
const MaxPostImages = 3

type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	Images      []storage.Upload
}

// UpdatePostInput changes only the fields that are set. Non-empty Images
// replace every existing picture of the post.
type UpdatePostInput struct {
	ActorID     uint
	Title       *string
	Description *string
	Images      []storage.Upload
}

type PostView struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Status        models.PostStatus `json:"status"`
	LikeCount     int64             `json:"like_count"`
	CommentCount  int64             `json:"comment_count"`
	FavoriteCount int64             `json:"favorite_count"`
	CreatedAt     time.Time         `json:"created_at"`
	Author        models.Profile    `json:"author"`
	Images        []string          `json:"images"`
}

func newPostView(p *models.Post) PostView {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.URL)
	}
	return PostView{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Status:        p.Status,
		LikeCount:     p.LikeCount,
		CommentCount:  p.CommentCount,
		FavoriteCount: p.FavoriteCount,
		CreatedAt:     p.CreatedAt,
		Author:        p.User.Profile(),
		Images:        images,
	}
}

// PostService is the post catalog: CRUD over posts and their images.
type PostService struct {
	db     *gorm.DB
	images ImageStore
}

func NewPostService(db *gorm.DB, images ImageStore) *PostService {
	return &PostService{db: db, images: images}
}

func withAuthorAndImages(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	})
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*PostView, error) {
	if in.UserID == 0 {
		return nil, invalidf("user_id is required")
	}
	title, err := plainText("title", in.Title)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, invalidf("title is required")
	}
	description, err := plainText("description", in.Description)
	if err != nil {
		return nil, err
	}
	if len(in.Images) > MaxPostImages {
		return nil, invalidf("a post can have at most %d images", MaxPostImages)
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Select("id").Take(&user, in.UserID).Error; err != nil {
		return nil, notFoundOr(err, "user %d", in.UserID)
	}

	urls, err := saveImages(ctx, s.images, storage.PostImages, in.Images)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		UserID:      in.UserID,
		Title:       title,
		Description: description,
		Status:      models.PostStatusActive,
	}
	for i, url := range urls {
		post.Images = append(post.Images, models.PostImage{URL: url, Position: i})
	}
	if err := db.Create(&post).Error; err != nil {
		removeImages(ctx, s.images, urls)
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

// ListPosts returns active posts, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]PostView, error) {
	var posts []models.Post
	err := withAuthorAndImages(s.db.WithContext(ctx)).
		Where("status = ?", models.PostStatusActive).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return postViews(posts), nil
}

// ListFavoritePosts returns the active posts a user saved, latest save first.
func (s *PostService) ListFavoritePosts(ctx context.Context, userID uint) ([]PostView, error) {
	var posts []models.Post
	err := withAuthorAndImages(s.db.WithContext(ctx)).
		Select("posts.*").
		Joins("JOIN favorites ON favorites.post_id = posts.id").
		Where("favorites.user_id = ? AND posts.status = ?", userID, models.PostStatusActive).
		Order("favorites.created_at DESC, favorites.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return postViews(posts), nil
}

func postViews(posts []models.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		views = append(views, newPostView(&posts[i]))
	}
	return views
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*PostView, error) {
	var post models.Post
	if err := withAuthorAndImages(s.db.WithContext(ctx)).Take(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "post %d", id)
	}
	view := newPostView(&post)
	return &view, nil
}

// PostOwner returns the id of the user who created the post.
func (s *PostService) PostOwner(ctx context.Context, id uint) (uint, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "user_id").Take(&post, id).Error; err != nil {
		return 0, notFoundOr(err, "post %d", id)
	}
	return post.UserID, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id uint, in UpdatePostInput) (*PostView, error) {
	db := s.db.WithContext(ctx)
	var post models.Post
	if err := db.Preload("Images").Take(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "post %d", id)
	}
	if in.ActorID != 0 && in.ActorID != post.UserID {
		return nil, permissionDeniedf("only the author can edit post %d", id)
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title, err := plainText("title", *in.Title)
		if err != nil {
			return nil, err
		}
		if title == "" {
			return nil, invalidf("title must not be empty")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		description, err := plainText("description", *in.Description)
		if err != nil {
			return nil, err
		}
		updates["description"] = description
	}
	if len(in.Images) > MaxPostImages {
		return nil, invalidf("a post can have at most %d images", MaxPostImages)
	}

	urls, err := saveImages(ctx, s.images, storage.PostImages, in.Images)
	if err != nil {
		return nil, err
	}
	replace := len(urls) > 0

	err = db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if !replace {
			return nil
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostImage{}).Error; err != nil {
			return err
		}
		images := make([]models.PostImage, 0, len(urls))
		for i, url := range urls {
			images = append(images, models.PostImage{PostID: id, URL: url, Position: i})
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		removeImages(ctx, s.images, urls)
		return nil, err
	}

	if replace {
		old := make([]string, 0, len(post.Images))
		for _, img := range post.Images {
			old = append(old, img.URL)
		}
		removeImages(ctx, s.images, old)
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post together with its images, reactions, favorites,
// comments and comment likes. A non-zero actorID must be the author.
func (s *PostService) DeletePost(ctx context.Context, id, actorID uint) error {
	db := s.db.WithContext(ctx)
	var post models.Post
	if err := db.Preload("Images").Take(&post, id).Error; err != nil {
		return notFoundOr(err, "post %d", id)
	}
	if actorID != 0 && actorID != post.UserID {
		return permissionDeniedf("only the author can delete post %d", id)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		steps := []func() error{
			func() error { return tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error },
			func() error {
				return tx.Where("post_id = ? AND parent_id IS NOT NULL", id).Delete(&models.Comment{}).Error
			},
			func() error { return tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error },
			func() error { return tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error },
			func() error { return tx.Where("post_id = ?", id).Delete(&models.Favorite{}).Error },
			func() error { return tx.Where("post_id = ?", id).Delete(&models.PostImage{}).Error },
			func() error { return tx.Delete(&models.Post{}, id).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	urls := make([]string, 0, len(post.Images))
	for _, img := range post.Images {
		urls = append(urls, img.URL)
	}
	removeImages(ctx, s.images, urls)
	return nil
}
