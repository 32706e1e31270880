// Package repository persiste usuarios, portafolios e historial de precios. Las
// consultas se escriben con placeholders "?" y se adaptan al driver activo.
package repository

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")

	ErrInvalidPeriod = errors.New("invalid period")
)

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
