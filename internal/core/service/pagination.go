package service

import (
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// normalizePage clamps a request to a usable page.
func normalizePage(p ports.PageRequest) ports.PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func newPage[T any](items []T, total int64, p ports.PageRequest) *domain.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &domain.Page[T]{
		Data: items,
		Pagination: domain.Pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Pages: domain.TotalPages(total, p.Limit),
		},
	}
}
