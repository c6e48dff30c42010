package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/rating"
	"github.com/xiebiao/bookshelf/internal/domain/relation"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlstore"
)

var dbSeq atomic.Int64

// newTestApp 共享一个内存库，命令结束时不关闭连接
func newTestApp(t *testing.T) (*app, *gorm.DB) {
	t.Helper()
	db, err := sqlstore.OpenInMemory(fmt.Sprintf("catalogctl_%d", dbSeq.Add(1)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	a := &app{
		cfg: &config.Config{},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		openDB: func(*config.Config) (*gorm.DB, func(), error) {
			return db, func() {}, nil
		},
	}
	return a, db
}

func execute(a *app, args ...string) (string, error) {
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	a, _ := newTestApp(t)
	out, err := execute(a, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "migrated\n", out)
}

func TestUserCommands(t *testing.T) {
	a, db := newTestApp(t)
	users := sqlstore.NewUserRepository(db)
	ctx := context.Background()

	out, err := execute(a, "user", "create", "--username", "admin", "--password", "admin1234", "--staff",
		"--first-name", "Ivan", "--last-name", "Petrov")
	require.NoError(t, err)
	assert.Contains(t, out, "created user admin")

	u, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.Equal(t, "Ivan", u.FirstName)

	t.Run("缺少必填参数", func(t *testing.T) {
		_, err := execute(a, "user", "create", "--username", "nobody")
		assert.Error(t, err)
	})

	t.Run("用户名重复", func(t *testing.T) {
		_, err := execute(a, "user", "create", "--username", "admin", "--password", "admin1234")
		assert.ErrorIs(t, err, user.ErrUsernameDuplicate)
	})

	t.Run("撤销管理员", func(t *testing.T) {
		out, err := execute(a, "user", "set-staff", "admin", "--revoke")
		require.NoError(t, err)
		assert.Equal(t, "admin staff=false\n", out)

		u, err := users.FindByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.False(t, u.IsStaff)
	})

	t.Run("删除不存在的用户", func(t *testing.T) {
		_, err := execute(a, "user", "delete", "ghost")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestUserDeleteRecomputesRatings(t *testing.T) {
	a, db := newTestApp(t)
	ctx := context.Background()
	users := sqlstore.NewUserRepository(db)
	books := sqlstore.NewBookRepository(db)
	rels := sqlstore.NewRelationRepository(db)
	tx := sqlstore.NewTxManager(db)
	relations := relation.NewService(rels, books, rating.NewAggregator(books, rels), tx)

	alice := user.NewUser("alice", "", "hashed", "Alice", "A")
	bob := user.NewUser("bob", "", "hashed", "Bob", "B")
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	name, price := "Test book 1", "25"
	b, err := book.NewService(books, rels, tx).Create(ctx, book.Actor{ID: alice.ID}, book.Input{Name: &name, Price: &price})
	require.NoError(t, err)

	five, one := relation.RateIncredible, relation.RateOk
	_, err = relations.Upsert(ctx, alice.ID, b.ID, relation.Patch{}.WithRate(&five))
	require.NoError(t, err)
	_, err = relations.Upsert(ctx, bob.ID, b.ID, relation.Patch{}.WithRate(&one))
	require.NoError(t, err)

	out, err := execute(a, "user", "delete", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted user bob")

	view, err := books.GetView(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, view.Rating.Valid)
	assert.Equal(t, "5.00", view.Rating.Decimal.StringFixed(2))
	assert.Len(t, view.Readers, 1)
}

func TestRatingRecompute(t *testing.T) {
	a, db := newTestApp(t)
	ctx := context.Background()
	users := sqlstore.NewUserRepository(db)
	books := sqlstore.NewBookRepository(db)
	rels := sqlstore.NewRelationRepository(db)
	tx := sqlstore.NewTxManager(db)
	relations := relation.NewService(rels, books, rating.NewAggregator(books, rels), tx)
	bookSvc := book.NewService(books, rels, tx)

	owner := user.NewUser("owner", "", "hashed", "", "")
	require.NoError(t, users.Create(ctx, owner))

	create := func(name string) *book.Book {
		price := "10"
		b, err := bookSvc.Create(ctx, book.Actor{ID: owner.ID}, book.Input{Name: &name, Price: &price})
		require.NoError(t, err)
		return b
	}
	rated := create("rated")
	unrated := create("unrated")

	four := relation.RateAmazing
	_, err := relations.Upsert(ctx, owner.ID, rated.ID, relation.Patch{}.WithRate(&four))
	require.NoError(t, err)

	t.Run("数据一致时不修改", func(t *testing.T) {
		out, err := execute(a, "rating", "recompute")
		require.NoError(t, err)
		assert.Equal(t, "recomputed 2 books, 0 changed\n", out)
	})

	t.Run("修复被篡改的评分", func(t *testing.T) {
		require.NoError(t, books.UpdateRating(ctx, rated.ID, decimal.NewNullDecimal(decimal.NewFromInt(1))))
		require.NoError(t, books.UpdateRating(ctx, unrated.ID, decimal.NewNullDecimal(decimal.NewFromInt(3))))

		out, err := execute(a, "rating", "recompute", "--book", fmt.Sprint(rated.ID))
		require.NoError(t, err)
		assert.Equal(t, "recomputed 1 books, 1 changed\n", out)

		got, err := books.FindByID(ctx, rated.ID)
		require.NoError(t, err)
		assert.Equal(t, "4.00", formatRating(got))

		out, err = execute(a, "rating", "recompute")
		require.NoError(t, err)
		assert.Equal(t, "recomputed 2 books, 1 changed\n", out)

		got, err = books.FindByID(ctx, unrated.ID)
		require.NoError(t, err)
		assert.Equal(t, "null", formatRating(got))
	})

	t.Run("图书不存在", func(t *testing.T) {
		_, err := execute(a, "rating", "recompute", "--book", "9999")
		assert.ErrorIs(t, err, book.ErrBookNotFound)
	})
}

func TestEventsWatchRequiresMQ(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := execute(a, "events", "watch")
	assert.ErrorContains(t, err, "mq.enabled=false")
}
