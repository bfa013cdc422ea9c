package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"redsocial/internal/services"
)

type UserHandler struct {
	users    *services.UserService
	profiles *services.ProfileProvider
}

func NewUserHandler(users *services.UserService, profiles *services.ProfileProvider) *UserHandler {
	return &UserHandler{users: users, profiles: profiles}
}

// Profile returns the public profile of a user (GET /api/users/:id)
func (h *UserHandler) Profile(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	profile, err := h.profiles.PublicProfile(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", profile)
}

type updateProfileRequest struct {
	Name            string  `json:"name" binding:"required"`
	PaternalSurname string  `json:"paternal_surname" binding:"required"`
	MaternalSurname *string `json:"maternal_surname"`
	Phone           *string `json:"phone"`
	Password        *string `json:"password"`
}

// UpdateProfile edits name, surnames, phone and optionally the password (PUT /api/users/:id)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req updateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		Name:            req.Name,
		PaternalSurname: req.PaternalSurname,
		MaternalSurname: req.MaternalSurname,
		Phone:           req.Phone,
		Password:        req.Password,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "profile updated", user)
}

// UpdateAvatar replaces the profile picture (PUT /api/users/:id/avatar, multipart)
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	avatars, closeAvatars, err := formUploads(c, "avatar")
	if err != nil {
		RespondError(c, err)
		return
	}
	defer closeAvatars()
	if len(avatars) == 0 {
		RespondError(c, badRequest(errors.New("avatar file is required")))
		return
	}

	url, err := h.users.UpdateAvatar(c.Request.Context(), userID, avatars[0])
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "avatar updated", gin.H{"avatar": url})
}
