package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

type memRepo struct {
	byID   map[uint]*User
	nextID uint
}

func newMemRepo() *memRepo { return &memRepo{byID: map[uint]*User{}} }

func (r *memRepo) Create(_ context.Context, u *User) error {
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return ErrUsernameDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) Update(_ context.Context, u *User) error {
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uint) error {
	delete(r.byID, id)
	return nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceWithCost(newMemRepo(), bcrypt.MinCost)

	u, err := svc.Register(ctx, RegisterInput{Username: "test_username", Password: "secret123", FirstName: "Ivan", LastName: "Petrov"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "secret123", u.Password)
	assert.False(t, u.IsStaff)

	t.Run("用户名重复", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Username: "test_username", Password: "secret123"})
		assert.ErrorIs(t, err, ErrUsernameDuplicate)
	})

	t.Run("用户名和密码都不合法", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Username: "bad name!", Password: "short"})
		appErr := apperrors.GetAppError(err)
		assert.Equal(t, []string{"password", "username"}, appErr.FieldNames())
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceWithCost(newMemRepo(), bcrypt.MinCost)
	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	_, err = svc.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword, "不暴露用户是否存在")
}

func TestSetStaff(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewServiceWithCost(repo, bcrypt.MinCost)
	created, err := svc.Register(ctx, RegisterInput{Username: "admin", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.SetStaff(ctx, "admin", true)
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsStaff)

	_, err = svc.SetStaff(ctx, "ghost", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
