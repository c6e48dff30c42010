package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

func TestAverage(t *testing.T) {
	testCases := []struct {
		name       string
		count, sum int64
		want       string // 空字符串表示NULL
	}{
		{"没有评分", 0, 0, ""},
		{"单个5分", 1, 5, "5.00"},
		{"5和4", 2, 9, "4.50"},
		{"5,5,4", 3, 14, "4.67"},
		{"3和2", 2, 5, "2.50"},
		{"1,1,2", 3, 4, "1.33"},
		{"恰好在中点时舍入到偶数", 8, 33, "4.12"},
		{"中点向上到偶数", 8, 35, "4.38"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Average(tc.count, tc.sum)
			if tc.want == "" {
				assert.False(t, got.Valid)
				return
			}
			require.True(t, got.Valid)
			assert.Equal(t, tc.want, got.Decimal.StringFixed(Places))
		})
	}
}

type fakeBooks struct {
	locked  []uint
	ratings map[uint]decimal.NullDecimal
	lockErr error
}

func (f *fakeBooks) LockByID(_ context.Context, id uint) (*book.Book, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.locked = append(f.locked, id)
	return &book.Book{ID: id}, nil
}

func (f *fakeBooks) UpdateRating(_ context.Context, id uint, rating decimal.NullDecimal) error {
	if f.ratings == nil {
		f.ratings = map[uint]decimal.NullDecimal{}
	}
	f.ratings[id] = rating
	return nil
}

type fakeStats map[uint][2]int64

func (f fakeStats) RateStats(_ context.Context, bookID uint) (int64, int64, error) {
	s := f[bookID]
	return s[0], s[1], nil
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()

	t.Run("锁定图书后写入平均分", func(t *testing.T) {
		books := &fakeBooks{}
		agg := NewAggregator(books, fakeStats{7: {3, 14}})

		require.NoError(t, agg.Recompute(ctx, 7))
		assert.Equal(t, []uint{7}, books.locked)
		assert.Equal(t, "4.67", books.ratings[7].Decimal.StringFixed(2))

		// 幂等
		require.NoError(t, agg.Recompute(ctx, 7))
		assert.Equal(t, "4.67", books.ratings[7].Decimal.StringFixed(2))
	})

	t.Run("没有评分时写入NULL", func(t *testing.T) {
		books := &fakeBooks{ratings: map[uint]decimal.NullDecimal{8: decimal.NewNullDecimal(decimal.NewFromInt(3))}}
		agg := NewAggregator(books, fakeStats{})

		require.NoError(t, agg.Recompute(ctx, 8))
		assert.False(t, books.ratings[8].Valid)
	})

	t.Run("图书不存在时不写入", func(t *testing.T) {
		books := &fakeBooks{lockErr: book.ErrBookNotFound}
		agg := NewAggregator(books, fakeStats{9: {1, 5}})

		err := agg.Recompute(ctx, 9)
		assert.True(t, errors.Is(err, book.ErrBookNotFound))
		assert.Empty(t, books.ratings)
	})
}
