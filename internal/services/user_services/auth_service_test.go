// File: internal/services/user_services/auth_service_test.go
package user_services

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/domain"
	userrepo "github.com/aiplatform/chat-backend/internal/repository/user"
)

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Warn(msg string, keysAndValues ...interface{})  {}

// recordingTrigger captures which users had login cleanup fired.
type recordingTrigger struct {
	mu    sync.Mutex
	calls []uint
}

func (r *recordingTrigger) TriggerLoginCleanup(userID uint) {
	r.mu.Lock()
	r.calls = append(r.calls, userID)
	r.mu.Unlock()
}

func newAuthFixture(t *testing.T) (*AuthService, *recordingTrigger, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	trigger := &recordingTrigger{}
	service := NewAuthService(
		userrepo.NewGormUserRepository(db), trigger, "test-secret", "admin@example.com", noopLogger{})
	return service, trigger, db
}

func TestRegisterAndLogin(t *testing.T) {
	service, trigger, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := service.Register(ctx, "alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRegular, created.Role)
	assert.Equal(t, domain.UserStatusActive, created.Status)

	account, token, err := service.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotNil(t, account.LastLoginAt)
	assert.Equal(t, []uint{account.ID}, trigger.calls)

	userID, err := service.ValidateJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, userID)
}

func TestRegisterValidation(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := service.Register(ctx, "x", "alice@example.com", "hunter2hunter2")
	assert.Error(t, err)

	_, err = service.Register(ctx, "alice", "not-an-email", "hunter2hunter2")
	assert.Error(t, err)

	_, err = service.Register(ctx, "alice", "alice@example.com", "short")
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := service.Register(ctx, "alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = service.Register(ctx, "alice2", "alice@example.com", "hunter2hunter2")
	assert.Error(t, err)

	_, err = service.Register(ctx, "alice", "alice2@example.com", "hunter2hunter2")
	assert.Error(t, err)
}

func TestRegisterAdminEmail(t *testing.T) {
	service, _, _ := newAuthFixture(t)

	created, err := service.Register(context.Background(), "boss", "admin@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.True(t, created.IsAdmin())
}

func TestLoginFailures(t *testing.T) {
	service, trigger, db := newAuthFixture(t)
	ctx := context.Background()

	created, err := service.Register(ctx, "alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = service.Login(ctx, "alice", "wrong-password")
	assert.Error(t, err)

	_, _, err = service.Login(ctx, "nobody", "hunter2hunter2")
	assert.Error(t, err)

	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", created.ID).
		Update("status", domain.UserStatusBanned).Error)
	_, _, err = service.Login(ctx, "alice", "hunter2hunter2")
	assert.Error(t, err)

	// No cleanup fires on a failed login.
	assert.Empty(t, trigger.calls)
}

func TestValidateJWTToken(t *testing.T) {
	service, _, _ := newAuthFixture(t)

	_, err := service.ValidateJWTToken("")
	assert.Error(t, err)

	_, err = service.ValidateJWTToken("not.a.token")
	assert.Error(t, err)
}
