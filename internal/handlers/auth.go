package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"redsocial/internal/services"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register creates an account (POST /api/register, multipart with optional avatar)
func (h *AuthHandler) Register(c *gin.Context) {
	avatars, closeAvatars, err := formUploads(c, "avatar")
	if err != nil {
		RespondError(c, err)
		return
	}
	defer closeAvatars()

	in := services.RegisterInput{
		Name:            c.PostForm("name"),
		PaternalSurname: c.PostForm("paternal_surname"),
		MaternalSurname: c.PostForm("maternal_surname"),
		Username:        c.PostForm("username"),
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		Phone:           c.PostForm("phone"),
	}
	if len(avatars) > 0 {
		in.Avatar = &avatars[0]
	}

	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "user registered", user)
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login checks credentials (POST /api/login). identifier is a username or email.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, err)
		return
	}
	user, err := h.users.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "login successful", user)
}
