package user

import (
	"time"
)

// User 用户实体（聚合根）
// DDD设计说明：
// 1. 密码以bcrypt哈希存储，实体不提供明文相关的方法
// 2. IsStaff为管理员标记：管理员可以修改/删除任何人的图书，只能通过命令行设置
// 3. FirstName/LastName出现在图书的readers列表中
type User struct {
	ID        uint
	Username  string
	Email     string
	Password  string // bcrypt哈希值
	FirstName string
	LastName  string
	IsStaff   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法），hashedPassword必须是bcrypt加密后的密码
func NewUser(username, email, hashedPassword, firstName, lastName string) *User {
	now := time.Now()
	return &User{
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateProfile 更新姓名
func (u *User) UpdateProfile(firstName, lastName string) {
	u.FirstName = firstName
	u.LastName = lastName
	u.UpdatedAt = time.Now()
}

// PromoteToStaff 设置管理员标记
func (u *User) PromoteToStaff(staff bool) {
	u.IsStaff = staff
	u.UpdatedAt = time.Now()
}
