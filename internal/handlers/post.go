package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"redsocial/internal/services"
	"redsocial/internal/utils"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List returns active posts, newest first (GET /api/posts)
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", posts)
}

// Create publishes a post with up to three images (POST /api/posts, multipart)
func (h *PostHandler) Create(c *gin.Context) {
	userID, err := utils.ParseID(c.PostForm("user_id"))
	if err != nil {
		RespondError(c, badRequest(err))
		return
	}
	images, closeImages, err := formUploads(c, "images")
	if err != nil {
		RespondError(c, err)
		return
	}
	defer closeImages()

	post, err := h.posts.CreatePost(c.Request.Context(), services.CreatePostInput{
		UserID:      userID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Images:      images,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "post created", post)
}

// Favorites lists the posts a user saved (GET /api/posts/favorites/:userId)
func (h *PostHandler) Favorites(c *gin.Context) {
	userID, err := paramID(c, "userId")
	if err != nil {
		RespondError(c, err)
		return
	}
	posts, err := h.posts.ListFavoritePosts(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", posts)
}

// Update edits a post (PUT /api/posts/:id, multipart). Sending images
// replaces the current ones.
func (h *PostHandler) Update(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	images, closeImages, err := formUploads(c, "images")
	if err != nil {
		RespondError(c, err)
		return
	}
	defer closeImages()

	in := services.UpdatePostInput{Images: images}
	if raw, ok := c.GetPostForm("user_id"); ok {
		if in.ActorID, err = utils.ParseID(raw); err != nil {
			RespondError(c, badRequest(err))
			return
		}
	}
	if title, ok := c.GetPostForm("title"); ok {
		in.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		in.Description = &description
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), postID, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "post updated", post)
}

type deletePostRequest struct {
	UserID uint `json:"user_id"`
}

// Delete removes a post and everything attached to it (DELETE /api/posts/:id)
func (h *PostHandler) Delete(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req deletePostRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, badRequest(err))
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), postID, req.UserID); err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "post deleted", nil)
}
