package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"redsocial/internal/models"
	"redsocial/internal/storage"
)

type RegisterInput struct {
	Name            string
	PaternalSurname string
	MaternalSurname string
	Username        string
	Email           string
	Password        string
	Phone           string
	Avatar          *storage.Upload
}

// UpdateProfileInput replaces the editable profile fields. A nil Password
// keeps the current one.
type UpdateProfileInput struct {
	Name            string
	PaternalSurname string
	MaternalSurname *string
	Phone           *string
	Password        *string
}

// UserService handles accounts: registration, login and profile edits.
type UserService struct {
	db       *gorm.DB
	images   ImageStore
	profiles *ProfileProvider
	hashCost int
}

func NewUserService(db *gorm.DB, images ImageStore, profiles *ProfileProvider) *UserService {
	return &UserService{db: db, images: images, profiles: profiles, hashCost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

// personalFields are the display fields shared by registration and profile edits.
type personalFields struct {
	name, paternal  string
	maternal, phone *string
}

func readPersonal(name, paternal string, maternal, phone *string) (personalFields, error) {
	var (
		p   personalFields
		err error
	)
	if p.name, err = plainText("name", name); err != nil {
		return p, err
	}
	if p.paternal, err = plainText("paternal_surname", paternal); err != nil {
		return p, err
	}
	if p.maternal, err = optionalText("maternal_surname", maternal); err != nil {
		return p, err
	}
	p.phone, err = optionalText("phone", phone)
	return p, err
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	personal, err := readPersonal(in.Name, in.PaternalSurname, &in.MaternalSurname, &in.Phone)
	if err != nil {
		return nil, err
	}
	name, paternal := personal.name, personal.paternal
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || paternal == "" || username == "" || email == "" || in.Password == "" {
		return nil, invalidf("name, paternal_surname, username, email and password are required")
	}
	if !validEmail(email) {
		return nil, invalidf("email %q is not valid", email)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	taken, err := exists(db, &models.User{}, "username = ? OR email = ?", username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflictf("username or email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:            name,
		PaternalSurname: paternal,
		MaternalSurname: personal.maternal,
		Username:        username,
		Email:           email,
		Password:        string(hash),
		Phone:           personal.phone,
	}
	if in.Avatar != nil {
		urls, err := saveImages(ctx, s.images, storage.Avatars, []storage.Upload{*in.Avatar})
		if err != nil {
			return nil, err
		}
		user.Avatar = &urls[0]
	}

	if err := db.Create(&user).Error; err != nil {
		if user.Avatar != nil {
			removeImages(ctx, s.images, []string{*user.Avatar})
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictf("username or email already registered")
		}
		return nil, err
	}
	return &user, nil
}

// Login checks the password of the user whose username or email matches
// identifier.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalidf("username or email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		Take(&user).Error
	switch {
	case isMissing(err):
		return nil, unauthenticatedf("invalid credentials")
	case err != nil:
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, unauthenticatedf("invalid credentials")
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user %d", userID)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	personal, err := readPersonal(in.Name, in.PaternalSurname, in.MaternalSurname, in.Phone)
	if err != nil {
		return nil, err
	}
	if personal.name == "" || personal.paternal == "" {
		return nil, invalidf("name and paternal_surname are required")
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":             personal.name,
		"paternal_surname": personal.paternal,
		"maternal_surname": personal.maternal,
		"phone":            personal.phone,
	}
	if in.Password != nil && *in.Password != "" {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hash)
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.profiles.Invalidate(userID)
	return s.GetUser(ctx, userID)
}

// UpdateAvatar stores a new avatar and deletes the previous file.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, up storage.Upload) (string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	urls, err := saveImages(ctx, s.images, storage.Avatars, []storage.Upload{up})
	if err != nil {
		return "", err
	}
	url := urls[0]
	var previous string
	if user.Avatar != nil {
		previous = *user.Avatar
	}

	if err := s.db.WithContext(ctx).Model(user).Update("avatar", url).Error; err != nil {
		removeImages(ctx, s.images, urls)
		return "", err
	}
	s.profiles.Invalidate(userID)
	if previous != "" && previous != url {
		removeImages(ctx, s.images, []string{previous})
	}
	return url, nil
}
