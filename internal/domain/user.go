package domain

// 角色固定两种，注册只会产生 Client；Admin 由 libctl 创建
const (
	RoleClient = "Client"
	RoleAdmin  = "Admin"
)

// User 持久化文档里的用户记录。password 字段是 bcrypt 散列，
// 会随整个文档落盘，所以对外一律返回 View()，不要直接回传 User。
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"` // 全局唯一
	PasswordHash  string `json:"password"`
	Role          string `json:"role"` // "Client"/"Admin"
	LibraryCardID string `json:"libraryCardId"` // 全局唯一，登录凭据
}

// UserView 对客户端暴露的字段（不含散列）
type UserView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	LibraryCardID string `json:"libraryCardId"`
}

func (u *User) View() UserView {
	return UserView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		LibraryCardID: u.LibraryCardID,
	}
}

// Actor 审计日志里的操作者描述："email (role)"，未认证为 "Unknown"
func (u *User) Actor() string {
	if u == nil {
		return "Unknown"
	}
	return u.Email + " (" + u.Role + ")"
}
