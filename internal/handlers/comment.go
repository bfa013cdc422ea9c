package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"redsocial/internal/services"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// Create adds a comment or reply (POST /api/comments)
func (h *CommentHandler) Create(c *gin.Context) {
	var req services.CreateCommentInput
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, err)
		return
	}
	comment, err := h.comments.CreateComment(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "comment created", comment)
}

// ListByPost returns the threads of a post (GET /api/comments/post/:postId)
func (h *CommentHandler) ListByPost(c *gin.Context) {
	postID, err := paramID(c, "postId")
	if err != nil {
		RespondError(c, err)
		return
	}
	threads, err := h.comments.ListComments(c.Request.Context(), postID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", threads)
}

// ToggleLike likes or unlikes a comment (POST /api/comments/like/:commentId)
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	commentID, err := paramID(c, "commentId")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req userRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, err)
		return
	}
	result, err := h.comments.ToggleCommentLike(c.Request.Context(), commentID, req.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	message := "like added"
	if !result.HasLike {
		message = "like removed"
	}
	respond(c, http.StatusOK, message, result)
}

// LikedByUser maps comment id to true for every comment of the post the user
// liked (GET /api/comments/likes/user/:userId/post/:postId)
func (h *CommentHandler) LikedByUser(c *gin.Context) {
	userID, err := paramID(c, "userId")
	if err != nil {
		RespondError(c, err)
		return
	}
	postID, err := paramID(c, "postId")
	if err != nil {
		RespondError(c, err)
		return
	}
	liked, err := h.comments.LikedCommentIDs(c.Request.Context(), postID, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", liked)
}

// Delete removes the caller's comment (DELETE /api/comments/:commentId)
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := paramID(c, "commentId")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req userRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, err)
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), commentID, req.UserID); err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "comment deleted", nil)
}
