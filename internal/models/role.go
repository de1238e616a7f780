// Package models содержит доменные модели сервиса: пользователей,
// консультации, платежи, заявки на услуги, подписки и результаты
// работы с документами.
package models

import "fmt"

// Role — закрытый набор ролей пользователя. Добавление новой роли требует
// правки ParseRole и CanManageRequests, что проверяется компилятором и тестами.
type Role string

const (
	// RoleUser — обычный клиент сервиса.
	RoleUser Role = "user"
	// RoleStaff — сотрудник, работающий с заявками.
	RoleStaff Role = "staff"
	// RoleAdmin — администратор.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin — главный администратор.
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole преобразует строку из хранилища или токена в Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleStaff, RoleAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// CanManageRequests сообщает, может ли роль менять статусы заявок
// и просматривать чужие записи.
func (r Role) CanManageRequests() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	case RoleUser, RoleStaff:
		return false
	}
	return false
}

// CanQueryRegistry сообщает, доступна ли роли проверка контрагента в реестре.
func (r Role) CanQueryRegistry() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleStaff:
		return true
	case RoleUser:
		return false
	}
	return false
}
