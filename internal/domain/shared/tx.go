// Package shared 领域层共用的抽象
package shared

import "context"

// TxManager 事务边界
// fn内通过ctx执行的所有仓储操作属于同一个事务：fn返回error则回滚，返回nil则提交。
// 实现位于infrastructure/persistence/sqlstore。
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
