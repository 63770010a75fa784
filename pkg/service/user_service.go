package service

import (
	"strings"

	"github.com/Rajatchopra3/Task-Management-System/pkg/models"
	"github.com/Rajatchopra3/Task-Management-System/pkg/storage"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// UserService covers the little this module needs from identity:
// registration so tasks have users to reference, and lookup. Tokens and
// role resolution live upstream.
type UserService struct {
	store  storage.Store
	logger Logger
}

func NewUserService(store storage.Store, logger Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

func (us *UserService) RegisterUser(username, email, password string, role models.Role) (id int64, err error) {
	if username == "" {
		return 0, errors.New("username cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return 0, errors.New("invalid email")
	}
	if len(password) < 8 {
		return 0, errors.New("password too short (min 8 characters)")
	}
	if role != models.AdminRole && role != models.UserRole {
		return 0, errors.New("invalid role; must be 'ADMIN' or 'USER'")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, errors.Wrap(err, "failed to hash password")
	}

	txStore, err := us.store.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				us.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			us.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	id, err = txStore.SaveUser(models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err == storage.ErrDuplicate {
		return 0, conflictf("email '%s' is already registered", email)
	}
	if err != nil {
		return 0, err
	}
	us.logger.Infof("Registered user '%s' with ID %d", username, id)
	return id, nil
}

func (us *UserService) GetUser(id int64) (models.User, error) {
	u, err := us.store.GetUser(id)
	if err == storage.ErrNotFound {
		return models.User{}, notFoundf("user %d", id)
	}
	return u, err
}

func (us *UserService) GetUserByEmail(email string) (models.User, error) {
	u, err := us.store.GetUserByEmail(email)
	if err == storage.ErrNotFound {
		return models.User{}, notFoundf("user '%s'", email)
	}
	return u, err
}
