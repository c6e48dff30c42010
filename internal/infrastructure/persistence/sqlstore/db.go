// Package sqlstore 基于GORM的仓储实现，支持MySQL、PostgreSQL和SQLite
package sqlstore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架，按配置选择方言
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 按配置自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return db, nil
}

// Open 连接数据库但不做迁移（命令行工具和测试使用）
func Open(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	// 1. 选择方言
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info // 开发环境打印SQL
	}

	// 3. 连接数据库
	// TranslateError把各方言的唯一键冲突统一成gorm.ErrDuplicatedKey
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite只允许一个写者，单连接避免"database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	slog.Info("数据库连接成功", "driver", cfg.Driver)
	return db, nil
}

// OpenInMemory 打开一个已迁移的命名内存SQLite库（测试和本地演示使用）
// 同名的连接共享同一个库，所有连接关闭后数据消失
func OpenInMemory(name string) (*gorm.DB, error) {
	db, err := Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, false)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %q", cfg.Driver)
	}
}

// AutoMigrate 自动迁移表结构
// 学习要点：
// 1. AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 2. 外键通过belongs-to关联字段上的constraint标签创建
// 3. 顺序有依赖：users → books → user_book_relations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&RelationModel{},
	)
}

// UserModel GORM用户模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/user/entity.go是领域实体，不依赖GORM
// 3. Repository负责两者之间的转换
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"uniqueIndex;size:150;not null;comment:用户名"`
	Email     string    `gorm:"size:254;not null;default:'';comment:邮箱"`
	Password  string    `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	FirstName string    `gorm:"size:150;not null;default:'';comment:名"`
	LastName  string    `gorm:"size:150;not null;default:'';comment:姓"`
	IsStaff   bool      `gorm:"not null;default:false;comment:管理员"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// 设计说明:
// 1. 价格DECIMAL(7,2)、评分DECIMAL(3,2)，使用decimal类型读写避免浮点误差
// 2. rating可为NULL（还没有任何评分）
// 3. 所有者被删除时owner_id置NULL，图书保留
type BookModel struct {
	ID         uint                `gorm:"primaryKey"`
	Name       string              `gorm:"size:255;not null;comment:书名"`
	Price      decimal.Decimal     `gorm:"type:decimal(7,2);not null;index;comment:价格"`
	AuthorName string              `gorm:"size:255;not null;default:'Author';comment:作者"`
	OwnerID    *uint               `gorm:"index;comment:所有者用户ID"`
	Owner      *UserModel          `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL"`
	Rating     decimal.NullDecimal `gorm:"type:decimal(3,2);comment:平均评分（反规范化）"`
	CreatedAt  time.Time           `gorm:"comment:创建时间"`
	UpdatedAt  time.Time           `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// RelationModel GORM用户-图书关系模型
// 设计说明:
// 1. (user_id, book_id)唯一索引，保证每对至多一条
// 2. like是SQL关键字，列名用liked
// 3. rate可为NULL，取值1..5
// 4. 用户或图书删除时级联删除
type RelationModel struct {
	ID          uint       `gorm:"primaryKey"`
	UserID      uint       `gorm:"uniqueIndex:uk_user_book;not null;comment:用户ID"`
	BookID      uint       `gorm:"uniqueIndex:uk_user_book;index;not null;comment:图书ID"`
	Liked       bool       `gorm:"column:liked;not null;default:false;comment:点赞"`
	InBookmarks bool       `gorm:"not null;default:false;comment:收藏"`
	Rate        *int16     `gorm:"type:smallint;comment:评分1..5"`
	User        *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Book        *BookModel `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (RelationModel) TableName() string {
	return "user_book_relations"
}
