package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"redsocial/internal/dbtest"
	"redsocial/internal/models"
	"redsocial/internal/observability"
	"redsocial/internal/storage"
)

type testEnv struct {
	db        *gorm.DB
	store     *storage.Local
	metrics   *observability.Metrics
	profiles  *ProfileProvider
	reactions *ReactionService
	comments  *CommentService
	posts     *PostService
	users     *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := dbtest.New(t)

	store, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	profiles, err := NewProfileProvider(gdb, 100, time.Minute)
	require.NoError(t, err)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	return &testEnv{
		db:        gdb,
		store:     store,
		metrics:   metrics,
		profiles:  profiles,
		reactions: NewReactionService(gdb, metrics),
		comments:  NewCommentService(gdb, profiles, metrics),
		posts:     NewPostService(gdb, store),
		users:     NewUserService(gdb, store, profiles).WithHashCost(bcrypt.MinCost),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{
		Name:            strings.ToUpper(username[:1]) + username[1:],
		PaternalSurname: "Test",
		Username:        username,
		Email:           username + "@example.com",
		Password:        "x",
	}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) createPost(t *testing.T, ownerID uint, title string) models.Post {
	t.Helper()
	p := models.Post{UserID: ownerID, Title: title, Status: models.PostStatusActive}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func (e *testEnv) reload(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, e.db.Take(&p, id).Error)
	return p
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (e *testEnv) comment(t *testing.T, postID, userID uint, text string, parentID *uint) *CommentView {
	t.Helper()
	c, err := e.comments.CreateComment(context.Background(), CreateCommentInput{
		PostID: postID, UserID: userID, Text: text, ParentID: parentID,
	})
	require.NoError(t, err)
	return c
}

var errPostUpdate = errors.New("post update failed")

// failPostUpdates makes every UPDATE of the posts table fail while the
// returned switch is on.
func (e *testEnv) failPostUpdates(t *testing.T) *atomic.Bool {
	t.Helper()
	var on atomic.Bool
	err := e.db.Callback().Update().Before("gorm:update").Register("test:fail_post_updates", func(tx *gorm.DB) {
		if on.Load() && tx.Statement.Table == "posts" {
			_ = tx.AddError(errPostUpdate)
		}
	})
	require.NoError(t, err)
	return &on
}

func pngUpload(name string) storage.Upload {
	return storage.Upload{Filename: name, ContentType: "image/png", Body: strings.NewReader(fmt.Sprintf("png:%s", name))}
}

func ptr[T any](v T) *T {
	return &v
}
