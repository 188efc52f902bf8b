package domain

// Session - явный контекст пользователя, передается в каждый вызов сервисов
type Session struct {
	UserID string
	Role   Role
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
