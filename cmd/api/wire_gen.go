// wire_gen.go 是wire.go中注入器的展开版本，按Wire的输出格式书写并已提交到仓库，
// 构建时不需要安装wire。修改wire.go后运行 `wire gen ./cmd/api` 覆盖本文件，
// 装配结果由wire_gen_test.go中的TestInitializeApp验证

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/application/relation"
	"github.com/xiebiao/bookshelf/internal/application/user"
	relation2 "github.com/xiebiao/bookshelf/internal/domain/relation"
	user2 "github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/internal/interface/http/router"
)

// Injectors from wire.go:

// InitializeApp 初始化整个应用
// 返回：配置好的Gin引擎，以及按创建逆序释放资源的cleanup
func InitializeApp(cfg *config.Config, log *slog.Logger) (*gin.Engine, func(), error) {
	keyedRateLimiter, cleanup := provideRateLimiter(cfg, log)
	db, cleanup2, err := provideDB(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	repository := sqlstore.NewUserRepository(db)
	service := user2.NewService(repository)
	registerUseCase := user.NewRegisterUseCase(service)
	manager := provideJWTManager(cfg)
	client, cleanup3, err := provideRedisClient(cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	sessionStore := redis.NewSessionStore(client)
	loginUseCase := user.NewLoginUseCase(service, manager, sessionStore)
	logoutUseCase := user.NewLogoutUseCase(sessionStore, manager)
	refreshTokenUseCase := user.NewRefreshTokenUseCase(manager, sessionStore)
	getProfileUseCase := user.NewGetProfileUseCase(repository)
	bookRepository := sqlstore.NewBookRepository(db)
	relationRepository := sqlstore.NewRelationRepository(db)
	aggregator := provideAggregator(bookRepository, relationRepository)
	txManager := sqlstore.NewTxManager(db)
	deleteAccountUseCase := user.NewDeleteAccountUseCase(repository, bookRepository, relationRepository, aggregator, txManager, sessionStore, manager)
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase, refreshTokenUseCase, getProfileUseCase, deleteAccountUseCase)
	listBooksUseCase := book.NewListBooksUseCase(bookRepository)
	getBookUseCase := book.NewGetBookUseCase(bookRepository)
	bookService := provideBookService(bookRepository, relationRepository, txManager)
	createBookUseCase := book.NewCreateBookUseCase(bookService, bookRepository)
	updateBookUseCase := book.NewUpdateBookUseCase(bookService, bookRepository)
	eventPublisher, cleanup4, err := messaging.NewEventPublisher(cfg)
	if err != nil {
		cleanup3()
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	deleteBookUseCase := book.NewDeleteBookUseCase(bookService, eventPublisher)
	bookHandler := handler.NewBookHandler(listBooksUseCase, getBookUseCase, createBookUseCase, updateBookUseCase, deleteBookUseCase)
	relationService := relation2.NewService(relationRepository, bookRepository, aggregator, txManager)
	updateRelationUseCase := relation.NewUpdateRelationUseCase(relationService, bookRepository, eventPublisher)
	relationHandler := handler.NewRelationHandler(updateRelationUseCase)
	authMiddleware := middleware.NewAuthMiddleware(manager, sessionStore, repository)
	handlers := router.Handlers{
		User:     userHandler,
		Book:     bookHandler,
		Relation: relationHandler,
		Auth:     authMiddleware,
	}
	engine := router.New(cfg, log, keyedRateLimiter, handlers)
	return engine, func() {
		cleanup4()
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
