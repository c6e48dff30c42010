package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	apprelation "github.com/xiebiao/bookshelf/internal/application/relation"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/rating"
	"github.com/xiebiao/bookshelf/internal/domain/relation"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/ratelimit"
	"github.com/xiebiao/bookshelf/pkg/validator"
)

var dbSeq atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type testServer struct {
	engine      *gin.Engine
	users       user.Repository
	userService user.Service
	jwt         *jwt.Manager
}

func newTestServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()

	db, err := sqlstore.OpenInMemory(fmt.Sprintf("router_test_%d", dbSeq.Add(1)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{Server: config.ServerConfig{Mode: "test"}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := sqlstore.NewUserRepository(db)
	books := sqlstore.NewBookRepository(db)
	rels := sqlstore.NewRelationRepository(db)
	tx := sqlstore.NewTxManager(db)
	agg := rating.NewAggregator(books, rels)
	sessions := redis.NewSessionStore(client)
	jwtManager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	publisher := messaging.NoopPublisher{}

	userService := user.NewServiceWithCost(users, bcrypt.MinCost)
	bookService := book.NewService(books, rels, tx)
	relationService := relation.NewService(rels, books, agg, tx)

	engine := New(cfg, log, limiter, Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService),
			appuser.NewLoginUseCase(userService, jwtManager, sessions),
			appuser.NewLogoutUseCase(sessions, jwtManager),
			appuser.NewRefreshTokenUseCase(jwtManager, sessions),
			appuser.NewGetProfileUseCase(users),
			appuser.NewDeleteAccountUseCase(users, books, rels, agg, tx, sessions, jwtManager),
		),
		Book: handler.NewBookHandler(
			appbook.NewListBooksUseCase(books),
			appbook.NewGetBookUseCase(books),
			appbook.NewCreateBookUseCase(bookService, books),
			appbook.NewUpdateBookUseCase(bookService, books),
			appbook.NewDeleteBookUseCase(bookService, publisher),
		),
		Relation: handler.NewRelationHandler(apprelation.NewUpdateRelationUseCase(relationService, books, publisher)),
		Auth:     middleware.NewAuthMiddleware(jwtManager, sessions, users),
	})

	return &testServer{engine: engine, users: users, userService: userService, jwt: jwtManager}
}

// login 直接创建用户并签发Token
func (s *testServer) login(t *testing.T, username string, staff bool) (uint, string) {
	t.Helper()
	u, err := s.userService.Register(context.Background(), user.RegisterInput{
		Username:  username,
		Password:  "password123",
		FirstName: "First " + username,
		LastName:  "Last " + username,
		IsStaff:   staff,
	})
	require.NoError(t, err)

	pair, err := s.jwt.GenerateToken(u.ID, u.Username)
	require.NoError(t, err)
	return u.ID, pair.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type bookBody struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Price          string  `json:"price"`
	AuthorName     string  `json:"author_name"`
	AnnotatedLikes int64   `json:"annotated_likes"`
	Rating         *string `json:"rating"`
	OwnerName      *string `json:"owner_name"`
	Readers        []struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"readers"`
}

type pageBody struct {
	Count      int64      `json:"count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
	Results    []bookBody `json:"results"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createBook(t *testing.T, token, name, price, author string) bookBody {
	t.Helper()
	w := s.do(t, http.MethodPost, "/books/", token, map[string]string{
		"name": name, "price": price, "author_name": author,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[bookBody](t, w)
}

// =========================================
// 图书
// =========================================

func TestCreateBook(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("未登录返回401", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/books/", "", map[string]string{"name": "x", "price": "1"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"detail": "Authentication credentials were not provided."}`, w.Body.String())
	})

	_, token := s.login(t, "test_username", false)

	t.Run("创建成功", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/books/", token, `{"name": "Test book 1", "price": 25, "author_name": "Author 1"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.Equal(t, "25.00", raw["price"])
		assert.Nil(t, raw["rating"])
		assert.EqualValues(t, 0, raw["annotated_likes"])
		assert.Equal(t, "test_username", raw["owner_name"])
		assert.Equal(t, []interface{}{}, raw["readers"])
	})

	t.Run("字段校验", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/books/", token, `{"price": "12.345"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		fields := decode[map[string][]string](t, w)
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "price")
	})

	t.Run("JSON格式错误", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/books/", token, `{"name": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string]string](t, w), "detail")
	})
}

func TestListBooks(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.login(t, "owner", false)
	b1 := s.createBook(t, token, "Test book 1", "25", "Author 1")
	b2 := s.createBook(t, token, "Test book 2", "55", "Author 5")
	b3 := s.createBook(t, token, "Test book Author 1", "55", "Author 2")

	ids := func(p pageBody) []uint {
		out := make([]uint, len(p.Results))
		for i, r := range p.Results {
			out[i] = r.ID
		}
		return out
	}

	testCases := []struct {
		name  string
		query string
		want  []uint
	}{
		{"全部", "", []uint{b1.ID, b2.ID, b3.ID}},
		{"搜索", "?search=Author%201", []uint{b1.ID, b3.ID}},
		{"价格过滤", "?price=55", []uint{b2.ID, b3.ID}},
		{"价格降序", "?ordering=-price", []uint{b2.ID, b3.ID, b1.ID}},
		{"作者升序", "?ordering=author_name", []uint{b1.ID, b3.ID, b2.ID}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/books/"+tc.query, "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			page := decode[pageBody](t, w)
			assert.Equal(t, tc.want, ids(page))
			assert.Equal(t, int64(len(tc.want)), page.Count)
		})
	}

	t.Run("分页", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/books/?page=2&page_size=2", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[pageBody](t, w)
		assert.Equal(t, []uint{b3.ID}, ids(page))
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("非法价格", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/books/?price=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"price": ["Enter a number."]}`, w.Body.String())
	})

	t.Run("api/v1前缀", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/books/?search=Author%201", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []uint{b1.ID, b3.ID}, ids(decode[pageBody](t, w)))
	})
}

func TestBookPermissions(t *testing.T) {
	s := newTestServer(t, nil)
	_, ownerToken := s.login(t, "owner", false)
	_, otherToken := s.login(t, "other", false)
	_, staffToken := s.login(t, "staff", true)
	b := s.createBook(t, ownerToken, "Test book 1", "25", "Author 1")
	path := fmt.Sprintf("/books/%d/", b.ID)

	t.Run("非所有者修改返回403且数据不变", func(t *testing.T) {
		w := s.do(t, http.MethodPut, path, otherToken, map[string]string{"name": "x", "price": "575", "author_name": "y"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"detail": "You do not have permission to perform this action."}`, w.Body.String())

		got := decode[bookBody](t, s.do(t, http.MethodGet, path, "", nil))
		assert.Equal(t, "25.00", got.Price)
		assert.Equal(t, "Test book 1", got.Name)
	})

	t.Run("匿名修改返回403", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, path, "", map[string]string{"price": "575"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("所有者PATCH", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, path, ownerToken, map[string]string{"price": "575"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[bookBody](t, w)
		assert.Equal(t, "575.00", got.Price)
		assert.Equal(t, "Author 1", got.AuthorName)
	})

	t.Run("PUT缺少必填字段", func(t *testing.T) {
		w := s.do(t, http.MethodPut, path, ownerToken, map[string]string{"author_name": "y"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("管理员PUT", func(t *testing.T) {
		w := s.do(t, http.MethodPut, path, staffToken, map[string]string{"name": "Renamed", "price": "10.5"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[bookBody](t, w)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "10.50", got.Price)
	})

	t.Run("非所有者删除返回403", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, path, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("所有者删除", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, path, ownerToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail": "Not found."}`, w.Body.String())
	})
}

// =========================================
// 关系
// =========================================

func TestUpdateRelation(t *testing.T) {
	s := newTestServer(t, nil)
	_, t1 := s.login(t, "user1", false)
	_, t2 := s.login(t, "user2", false)
	_, t3 := s.login(t, "user3", false)
	b := s.createBook(t, t1, "Test book 1", "25", "Author 1")
	relPath := fmt.Sprintf("/relations/%d/", b.ID)
	bookPath := fmt.Sprintf("/books/%d/", b.ID)

	ratingOf := func() *string {
		return decode[bookBody](t, s.do(t, http.MethodGet, bookPath, "", nil)).Rating
	}

	t.Run("未登录返回401", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, relPath, "", map[string]bool{"like": true})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	w := s.do(t, http.MethodPatch, relPath, t1, `{"rate": 5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"book": %d, "like": false, "in_bookmarks": false, "rate": 5}`, b.ID), w.Body.String())
	require.NotNil(t, ratingOf())
	assert.Equal(t, "5.00", *ratingOf())

	w = s.do(t, http.MethodPatch, relPath, t2, `{"rate": "4", "like": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "4.50", *ratingOf())

	s.do(t, http.MethodPatch, relPath, t2, `{"rate": 5}`)
	s.do(t, http.MethodPatch, relPath, t3, `{"rate": 4}`)
	assert.Equal(t, "4.67", *ratingOf())

	t.Run("非法评分返回400且关系不变", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, relPath, t1, `{"like": true, "rate": 10}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"rate": ["\"10\" is not a valid choice."]}`, w.Body.String())

		got := decode[bookBody](t, s.do(t, http.MethodGet, bookPath, "", nil))
		assert.Equal(t, "4.67", *got.Rating)
		assert.EqualValues(t, 1, got.AnnotatedLikes)
	})

	t.Run("点赞数与读者", func(t *testing.T) {
		got := decode[bookBody](t, s.do(t, http.MethodGet, bookPath, "", nil))
		assert.EqualValues(t, 1, got.AnnotatedLikes)
		require.Len(t, got.Readers, 3)
		assert.Equal(t, "First user1", got.Readers[0].FirstName)
	})

	t.Run("null清除评分", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, relPath, t3, `{"rate": null}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5.00", *ratingOf())
	})

	t.Run("图书不存在", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, "/relations/9999/", t1, `{"like": true}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("空请求体只建立关系", func(t *testing.T) {
		_, t4 := s.login(t, "user4", false)
		w := s.do(t, http.MethodPatch, relPath, t4, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, fmt.Sprintf(`{"book": %d, "like": false, "in_bookmarks": false, "rate": null}`, b.ID), w.Body.String())

		got := decode[bookBody](t, s.do(t, http.MethodGet, bookPath, "", nil))
		assert.Equal(t, "5.00", *got.Rating)
		assert.Len(t, got.Readers, 4)
	})

	t.Run("截断的JSON仍返回400", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, relPath, t1, `{"like": tr`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// =========================================
// 用户
// =========================================

func TestUserFlow(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "reader1", "password": "password123", "first_name": "Ivan", "last_name": "Petrov",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("用户名重复", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/users/register", "", map[string]string{"username": "reader1", "password": "password123"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string][]string](t, w), "username")
	})

	t.Run("缺少必填字段", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/users/register", "", map[string]string{"username": "reader2"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"This field is required."}, decode[map[string][]string](t, w)["password"])
	})

	w = s.do(t, http.MethodPost, "/users/login", "", map[string]string{"username": "reader1", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[appuser.LoginResponse](t, w)
	assert.Equal(t, "Ivan", login.User.FirstName)

	w = s.do(t, http.MethodGet, "/users/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reader1", decode[appuser.UserInfo](t, w).Username)

	w = s.do(t, http.MethodPost, "/users/logout", login.AccessToken, map[string]string{"refresh_token": login.RefreshToken})
	require.Equal(t, http.StatusNoContent, w.Code)

	t.Run("登出后Token失效", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/users/me", login.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = s.do(t, http.MethodPost, "/users/refresh", "", map[string]string{"refresh_token": login.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t, nil)
	_, ownerToken := s.login(t, "owner", false)
	_, criticToken := s.login(t, "critic", false)
	b := s.createBook(t, ownerToken, "Test book 1", "25", "Author 1")
	relPath := fmt.Sprintf("/relations/%d/", b.ID)

	s.do(t, http.MethodPatch, relPath, ownerToken, `{"rate": 5}`)
	s.do(t, http.MethodPatch, relPath, criticToken, `{"rate": 1}`)

	w := s.do(t, http.MethodDelete, "/users/me", criticToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	got := decode[bookBody](t, s.do(t, http.MethodGet, fmt.Sprintf("/books/%d/", b.ID), "", nil))
	assert.Equal(t, "5.00", *got.Rating)

	w = s.do(t, http.MethodGet, "/users/me", criticToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// =========================================
// 运维路由与中间件
// =========================================

func TestPingAndRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", rec.Header().Get(middleware.RequestIDHeader))

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestInvalidTokenRejected(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 图书列表对匿名用户开放，坏Token按匿名处理
	w = s.do(t, http.MethodGet, "/books/", "not-a-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWriteRoutesRateLimited(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)
	s := newTestServer(t, limiter)
	_, token := s.login(t, "owner", false)

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/books/", token, map[string]string{"name": "b", "price": "1"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := s.do(t, http.MethodPost, "/books/", token, map[string]string{"name": "b", "price": "1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 读接口不受限
	w = s.do(t, http.MethodGet, "/books/", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
