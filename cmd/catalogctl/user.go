package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/rating"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlstore"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "用户管理（创建管理员、授权、删除）",
	}
	cmd.AddCommand(
		newUserCreateCmd(a),
		newUserSetStaffCmd(a),
		newUserDeleteCmd(a),
	)
	return cmd
}

// newUserCreateCmd 注册接口不能创建管理员，管理员只能从这里创建
func newUserCreateCmd(a *app) *cobra.Command {
	var in user.RegisterInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "创建用户",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}

			svc := user.NewService(sqlstore.NewUserRepository(db))
			u, err := svc.Register(cmd.Context(), in)
			if err != nil {
				return err
			}

			a.log.Info("用户已创建", "user_id", u.ID, "username", u.Username, "is_staff", u.IsStaff)
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id=%d, staff=%t)\n", u.Username, u.ID, u.IsStaff)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Username, "username", "", "用户名")
	flags.StringVar(&in.Password, "password", "", "密码（8-64位，包含字母和数字）")
	flags.StringVar(&in.Email, "email", "", "邮箱")
	flags.StringVar(&in.FirstName, "first-name", "", "名")
	flags.StringVar(&in.LastName, "last-name", "", "姓")
	flags.BoolVar(&in.IsStaff, "staff", false, "创建为管理员")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserSetStaffCmd(a *app) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "set-staff <username>",
		Short: "授予（或用--revoke撤销）管理员权限",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}

			svc := user.NewService(sqlstore.NewUserRepository(db))
			u, err := svc.SetStaff(cmd.Context(), args[0], !revoke)
			if err != nil {
				return err
			}

			a.log.Info("管理员权限已变更", "user_id", u.ID, "username", u.Username, "is_staff", u.IsStaff)
			fmt.Fprintf(cmd.OutOrStdout(), "%s staff=%t\n", u.Username, u.IsStaff)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "撤销管理员权限")
	return cmd
}

// newUserDeleteCmd 与DELETE /users/me走同一个用例：关系删除、评分重算、图书owner置空
// 命令行没有会话存储，已签发的Token在过期前仍会因为用户不存在而被拒绝
func newUserDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "删除用户",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}

			users := sqlstore.NewUserRepository(db)
			books := sqlstore.NewBookRepository(db)
			relations := sqlstore.NewRelationRepository(db)

			u, err := users.FindByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			uc := appuser.NewDeleteAccountUseCase(
				users, books, relations,
				rating.NewAggregator(books, relations),
				sqlstore.NewTxManager(db),
				nil, nil,
			)
			if err := uc.Execute(cmd.Context(), u.ID, nil); err != nil {
				return err
			}

			a.log.Info("用户已删除", "user_id", u.ID, "username", u.Username)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s (id=%d)\n", u.Username, u.ID)
			return nil
		},
	}
}
