// Package reference генерирует идентификаторы и номера заявок.
package reference

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRequestNumber возвращает номер заявки вида SR-20240131-AB12CD34.
// Уникальность обеспечивается индексом в базе, суффикс берётся из uuid.
func NewRequestNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("SR-%s-%s", now.Format("20060102"), suffix)
}

// NewID возвращает новый uuid в строковом виде.
func NewID() string {
	return uuid.New().String()
}
