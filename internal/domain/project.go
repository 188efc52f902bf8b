package domain

import "time"

type Project struct {
	ID          string
	Name        string
	Description *string
	UserID      string
	IsShared    bool
	CreatedAt   time.Time
}

// VisibleTo сообщает, видит ли пользователь проект: владелец или общий проект
func (p *Project) VisibleTo(userID string) bool {
	return p.UserID == userID || p.IsShared
}
