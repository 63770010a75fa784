package service_test

import (
	"testing"

	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/service"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterUser(t *testing.T) {
	newUserService := func() *service.UserService {
		return service.NewUserService(storage.NewMockStore(), logger{})
	}

	t.Run("RegisterAndLookup", func(t *testing.T) {
		svc := newUserService()
		id, err := svc.RegisterUser("ana", "ana@example.com", "s3cretpass", models.UserRole)
		assert.NoError(t, err)

		u, err := svc.GetUser(id)
		assert.NoError(t, err)
		assert.Equal(t, "ana", u.Username)
		assert.Equal(t, models.UserRole, u.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cretpass")))

		byEmail, err := svc.GetUserByEmail("ana@example.com")
		assert.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)
	})

	t.Run("DuplicateEmailConflicts", func(t *testing.T) {
		svc := newUserService()
		_, err := svc.RegisterUser("ana", "ana@example.com", "s3cretpass", models.UserRole)
		assert.NoError(t, err)

		_, err = svc.RegisterUser("other", "ana@example.com", "s3cretpass", models.UserRole)
		assert.Error(t, err)
		assert.True(t, service.IsConflict(err))
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("InvalidInputs", func(t *testing.T) {
		svc := newUserService()
		_, err := svc.RegisterUser("", "ana@example.com", "s3cretpass", models.UserRole)
		assert.Error(t, err)

		_, err = svc.RegisterUser("ana", "not-an-email", "s3cretpass", models.UserRole)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid email")

		_, err = svc.RegisterUser("ana", "ana@example.com", "short", models.UserRole)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "password too short")

		_, err = svc.RegisterUser("ana", "ana@example.com", "s3cretpass", models.Role("ROOT"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid role")
	})

	t.Run("MissingUserNotFound", func(t *testing.T) {
		svc := newUserService()
		_, err := svc.GetUser(999)
		assert.Error(t, err)
		assert.True(t, service.IsNotFound(err))
	})
}
