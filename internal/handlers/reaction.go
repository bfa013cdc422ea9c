package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"redsocial/internal/models"
	"redsocial/internal/services"
)

type ReactionHandler struct {
	reactions *services.ReactionService
}

func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

type reactionRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Kind   string `json:"kind" binding:"required,oneof=like dislike"`
}

type userRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// React toggles a like or dislike (POST /api/reactions/post/:id)
func (h *ReactionHandler) React(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req reactionRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, err)
		return
	}

	kind := models.ReactionKind(req.Kind)
	result, err := h.reactions.ApplyReaction(c.Request.Context(), postID, req.UserID, kind)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, reactionMessage(kind, result.Action), result)
}

func reactionMessage(kind models.ReactionKind, action services.ToggleAction) string {
	switch action {
	case services.ActionAdded:
		return fmt.Sprintf("%s added", kind)
	case services.ActionRemoved:
		return fmt.Sprintf("%s removed", kind)
	default:
		return fmt.Sprintf("reaction switched to %s", kind)
	}
}

// Favorite toggles a saved post (POST /api/reactions/favorite/:id)
func (h *ReactionHandler) Favorite(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req userRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, err)
		return
	}

	result, err := h.reactions.ApplyFavorite(c.Request.Context(), postID, req.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	message := "added to favorites"
	if !result.IsFavorite {
		message = "removed from favorites"
	}
	respond(c, http.StatusOK, message, result)
}

// State reports counters and the user's reaction (GET /api/reactions/state/:postId/:userId)
func (h *ReactionHandler) State(c *gin.Context) {
	postID, err := paramID(c, "postId")
	if err != nil {
		RespondError(c, err)
		return
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		RespondError(c, err)
		return
	}

	state, err := h.reactions.GetReactionState(c.Request.Context(), postID, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", state)
}
