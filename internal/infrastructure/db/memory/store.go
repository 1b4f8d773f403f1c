// Package memory holds process-local repositories for the stub server. All
// repositories created from one Store share its data and lock.
package memory

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

type refreshEntry struct {
	accountID string
	expiresAt time.Time
}

// Store is the shared backing data.
type Store struct {
	mu sync.RWMutex

	accounts   map[string]domain.Account
	categories map[string]domain.Category
	products   map[string]domain.Product
	orders     map[string]domain.Order
	refresh    map[string]refreshEntry

	// insertion order, oldest first
	accountIDs  []string
	categoryIDs []string
	productIDs  []string
	orderIDs    []string

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]domain.Account),
		categories: make(map[string]domain.Category),
		products:   make(map[string]domain.Product),
		orders:     make(map[string]domain.Order),
		refresh:    make(map[string]refreshEntry),
		now:        time.Now,
	}
}

func (s *Store) Accounts() *AccountRepository             { return &AccountRepository{s: s} }
func (s *Store) Categories() *CategoryRepository          { return &CategoryRepository{s: s} }
func (s *Store) Products() *ProductRepository             { return &ProductRepository{s: s} }
func (s *Store) Orders() *OrderRepository                 { return &OrderRepository{s: s} }
func (s *Store) Sessions(ttl time.Duration) *SessionStore { return &SessionStore{s: s, ttl: ttl} }

func newID() string {
	return primitive.NewObjectID().Hex()
}

// newestFirst returns the ids of the requested page, most recent first.
func newestFirst(ids []string, page ports.PageRequest) []string {
	total := len(ids)
	start := page.Skip()
	if start >= total {
		return nil
	}
	end := start + page.Limit
	if page.Limit <= 0 || end > total {
		end = total
	}
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, ids[total-1-i])
	}
	return out
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func cloneStrings(v []string) []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v...)
}
