// Package middlewarectx содержит HTTP middleware: проверку JWT,
// контроль ролей и ограничение частоты запросов.
package middlewarectx

import (
	"context"

	"github.com/lexserve/lexserve-backend/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// principalKey — единственный ключ, под которым в контексте лежит Principal.
const principalKey Key = "principal"

// Principal — нормализованная личность запроса. Заполняется middleware
// один раз, обработчики не разбирают токен повторно.
type Principal struct {
	UserUID  string
	Username string
	Role     models.Role
}

// Anonymous возвращает принципала для неаутентифицированных подключений
// realtime-канала.
func Anonymous() Principal {
	return Principal{Username: "anonymous", Role: models.RoleUser}
}

// WithPrincipal кладёт принципала в контекст запроса.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext извлекает принципала из контекста.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
