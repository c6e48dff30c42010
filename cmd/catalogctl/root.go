package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// app 命令共享的状态
// 设计说明:
// 1. 配置和日志在PersistentPreRunE里初始化一次，子命令直接使用
// 2. 数据库按需打开（events watch不需要数据库）
// 3. openDB可替换，测试时注入内存SQLite
type app struct {
	configPath string
	cfg        *config.Config
	log        *slog.Logger
	closeLog   func() error

	openDB  func(cfg *config.Config) (*gorm.DB, func(), error)
	db      *gorm.DB
	closeDB func()
}

func newApp() *app {
	return &app{openDB: openDatabase}
}

// openDatabase 只连接不迁移，表结构由migrate命令负责
func openDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := sqlstore.Open(cfg.Database, false)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "图书目录服务运维工具",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(
		newMigrateCmd(a),
		newUserCmd(a),
		newRatingCmd(a),
		newEventsCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.cfg == nil {
		var err error
		if a.configPath != "" {
			a.cfg, err = config.LoadFrom(a.configPath)
		} else {
			a.cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
	}

	if a.log == nil {
		// 命令输出走stdout，日志走stderr
		l, closeLog, err := logger.New(logger.Config{
			Level:        a.cfg.Log.Level,
			Format:       a.cfg.Log.Format,
			Output:       "stderr",
			EnableCaller: a.cfg.Log.EnableCaller,
		})
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		a.log, a.closeLog = l, closeLog
	}
	return nil
}

// database 第一次调用时连接数据库
func (a *app) database() (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, closeDB, err := a.openDB(a.cfg)
	if err != nil {
		return nil, err
	}
	a.db, a.closeDB = db, closeDB
	return db, nil
}

func (a *app) close() {
	if a.closeDB != nil {
		a.closeDB()
		a.db, a.closeDB = nil, nil
	}
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或升级表结构",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			if err := sqlstore.AutoMigrate(db); err != nil {
				return fmt.Errorf("数据库迁移失败: %w", err)
			}
			a.log.Info("数据库迁移完成", "driver", a.cfg.Database.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}
