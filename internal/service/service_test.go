package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/notify"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
	"github.com/DroppedLink/feedback/internal/types"
)

// recorder 记录发出的通知
type recorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recorder) Notify(_ context.Context, n notify.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recorder) events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Event, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Event)
	}
	return out
}

// setup 使用内存 sqlite 和临时附件目录初始化全局依赖
func setup(t *testing.T) *recorder {
	t.Helper()

	config.GlobalConfig = config.Default()
	config.GlobalConfig.Upload.Dir = t.TempDir()
	config.GlobalConfig.JWT.Secret = "test-secret"

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	rec := &recorder{}
	Init(storage.NewLocal(db, config.GlobalConfig.Upload), rec)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		Files = nil
		Notifier = notify.Nop{}
	})
	return rec
}

func createUser(t *testing.T, username string, isAdmin bool) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		Username: username,
		Password: string(hashed),
		Email:    username + "@example.com",
		IsAdmin:  isAdmin,
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func createCategory(t *testing.T, name string) uint {
	t.Helper()
	id, err := Category.Save(context.Background(), &types.CategoryRequest{Name: name})
	require.NoError(t, err)
	return id
}

func createForm(t *testing.T, categoryID uint, name, fieldConfig string, active bool) uint {
	t.Helper()
	id, err := Form.Save(context.Background(), &types.FormRequest{
		CategoryID:  categoryID,
		Name:        name,
		FieldConfig: []byte(fieldConfig),
		IsActive:    &active,
	})
	require.NoError(t, err)
	return id
}

func submitLegacy(t *testing.T, userID uint, typ, subject string) uint {
	t.Helper()
	id, err := Submission.Submit(context.Background(), userID, &types.SubmitRequest{
		Type:    typ,
		Subject: subject,
		Message: "details for " + subject,
	})
	require.NoError(t, err)
	return id
}

func uintPtr(v uint) *uint {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

func getFeedbackConfig() *config.FeedbackConfig {
	return &config.GlobalConfig.Feedback
}
