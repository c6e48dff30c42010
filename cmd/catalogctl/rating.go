package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/rating"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlstore"
)

func newRatingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rating",
		Short: "评分维护",
	}
	cmd.AddCommand(newRatingRecomputeCmd(a))
	return cmd
}

// newRatingRecomputeCmd 按关系表重新计算评分，用于修复手工改库或导入后的数据
// 学习要点:
// 1. 每本书一个事务，和在线写入一样先锁图书行再聚合
// 2. 重算是幂等的，中途失败可以直接重跑
// 3. 评分发生变化的图书发布book.rating_changed事件
func newRatingRecomputeCmd(a *app) *cobra.Command {
	var bookID uint

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "重算图书评分（默认全部图书）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.database()
			if err != nil {
				return err
			}

			books := sqlstore.NewBookRepository(db)
			aggregator := rating.NewAggregator(books, sqlstore.NewRelationRepository(db))
			txManager := sqlstore.NewTxManager(db)

			publisher, closePublisher, err := messaging.NewEventPublisher(a.cfg)
			if err != nil {
				return err
			}
			defer closePublisher()

			ids, err := targetBooks(ctx, books, bookID)
			if err != nil {
				return err
			}

			changed := 0
			for _, id := range ids {
				before, err := books.FindByID(ctx, id)
				if err != nil {
					return err
				}

				if err := txManager.Transaction(ctx, func(ctx context.Context) error {
					return aggregator.Recompute(ctx, id)
				}); err != nil {
					return fmt.Errorf("重算图书%d评分失败: %w", id, err)
				}

				after, err := books.FindByID(ctx, id)
				if err != nil {
					return err
				}
				if sameRating(before, after) {
					continue
				}

				changed++
				a.log.Info("评分已修正", "book_id", id, "before", formatRating(before), "after", formatRating(after))
				messaging.PublishAfterCommit(ctx, publisher, messaging.RoutingBookRatingChanged,
					messaging.NewBookRatingChanged(after))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d books, %d changed\n", len(ids), changed)
			return nil
		},
	}
	cmd.Flags().UintVar(&bookID, "book", 0, "只重算指定ID的图书")
	return cmd
}

func targetBooks(ctx context.Context, books book.Repository, bookID uint) ([]uint, error) {
	if bookID != 0 {
		if _, err := books.FindByID(ctx, bookID); err != nil {
			return nil, err
		}
		return []uint{bookID}, nil
	}

	// PageSize为0表示不分页
	views, _, err := books.List(ctx, book.ListParams{})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	return ids, nil
}

func sameRating(a, b *book.Book) bool {
	if a.Rating.Valid != b.Rating.Valid {
		return false
	}
	return !a.Rating.Valid || a.Rating.Decimal.Equal(b.Rating.Decimal)
}

func formatRating(b *book.Book) string {
	if !b.Rating.Valid {
		return "null"
	}
	return b.Rating.Decimal.StringFixed(rating.Places)
}
