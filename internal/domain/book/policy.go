package book

// Actor 发起操作的用户，ID为0表示匿名
type Actor struct {
	ID      uint
	IsStaff bool
}

// Authenticated 是否已登录
func (a Actor) Authenticated() bool {
	return a.ID != 0
}

// CanWrite 修改/删除图书的权限：已登录，且是所有者或管理员
// 读操作不做权限检查
func CanWrite(actor Actor, b *Book) bool {
	if !actor.Authenticated() {
		return false
	}
	return actor.IsStaff || b.IsOwnedBy(actor.ID)
}

// Authorize CanWrite的错误版本
func Authorize(actor Actor, b *Book) error {
	if !CanWrite(actor, b) {
		return ErrPermissionDenied
	}
	return nil
}
