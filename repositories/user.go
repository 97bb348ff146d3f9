//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/samber/lo"
)

// IUserRepository is the read-only user directory.
// The relay treats these identities as opaque and pre-validated.
type IUserRepository interface {
	All() []domain.User
	Get(id domain.UserID) (domain.User, bool)
}

type DirectoryUser struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

type UserRepository struct {
	users map[domain.UserID]domain.User
}

// NewUserRepository loads the directory from path, or from the embedded seed when path is empty.
func NewUserRepository(path string) (*UserRepository, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = seedFolder.ReadFile("seed/users.json")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("user directory: %w", err)
	}

	var raw []DirectoryUser
	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("user directory: %w", err)
	}
	return NewUserRepositoryFrom(lo.Map(raw, func(u DirectoryUser, _ int) domain.User {
		return domain.User{ID: domain.UserID(u.ID), Name: u.Name, Profile: u.Profile}
	})), nil
}

func NewUserRepositoryFrom(users []domain.User) *UserRepository {
	return &UserRepository{users: lo.KeyBy(users, func(u domain.User) domain.UserID { return u.ID })}
}

// All returns the directory sorted by id.
func (r *UserRepository) All() []domain.User {
	users := lo.Values(r.users)
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (r *UserRepository) Get(id domain.UserID) (domain.User, bool) {
	u, ok := r.users[id]
	return u, ok
}
