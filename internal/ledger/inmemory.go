package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	transactions map[int64]Transaction
	categories   map[int64]Category
	nextTxID     int64
	nextCatID    int64
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and local development without a database.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		transactions: make(map[int64]Transaction),
		categories:   make(map[int64]Category),
	}
}

func (l *inMemoryLedger) Ping(context.Context) error { return nil }

func (l *inMemoryLedger) CreateTransaction(_ context.Context, tx Transaction) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.CategoryID != nil {
		if _, ok := l.categories[*tx.CategoryID]; !ok {
			return Transaction{}, fmt.Errorf("insert transaction: category %d violates foreign key", *tx.CategoryID)
		}
	}

	l.nextTxID++
	now := time.Now().UTC()
	tx.ID = l.nextTxID
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	tx.CategoryID = copyID(tx.CategoryID)
	tx.Category = nil
	l.transactions[tx.ID] = tx
	return l.resolve(tx), nil
}

func (l *inMemoryLedger) ListTransactions(_ context.Context, filter TransactionFilter) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txs := make([]Transaction, 0)
	for _, tx := range l.transactions {
		if !matches(tx, filter) {
			continue
		}
		txs = append(txs, l.resolve(tx))
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs, nil
}

func (l *inMemoryLedger) GetTransaction(_ context.Context, ownerID string, id int64) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tx, ok := l.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return Transaction{}, ErrTransactionNotFound
	}
	return l.resolve(tx), nil
}

func (l *inMemoryLedger) UpdateTransaction(_ context.Context, ownerID string, id int64, p TransactionPatch) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return Transaction{}, ErrTransactionNotFound
	}
	if p.CategoryID.HasValue() {
		if _, ok := l.categories[p.CategoryID.Value]; !ok {
			return Transaction{}, fmt.Errorf("update transaction %d: category %d violates foreign key", id, p.CategoryID.Value)
		}
	}

	if p.Amount.HasValue() {
		tx.Amount = p.Amount.Value
	}
	if p.Description.HasValue() {
		tx.Description = p.Description.Value
	}
	if p.Kind.HasValue() {
		tx.Kind = p.Kind.Value
	}
	if p.Date.HasValue() {
		tx.Date = p.Date.Value.UTC()
	}
	if p.CategoryID.Present {
		tx.CategoryID = p.CategoryID.Ptr()
	}
	tx.UpdatedAt = time.Now().UTC()
	l.transactions[id] = tx
	return l.resolve(tx), nil
}

func (l *inMemoryLedger) DeleteTransaction(_ context.Context, ownerID string, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return ErrTransactionNotFound
	}
	delete(l.transactions, id)
	return nil
}

func (l *inMemoryLedger) CreateCategory(_ context.Context, name string) (Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nameTaken(name, 0) {
		return Category{}, ErrDuplicateCategory
	}
	l.nextCatID++
	now := time.Now().UTC()
	cat := Category{ID: l.nextCatID, Name: name, CreatedAt: now, UpdatedAt: now}
	l.categories[cat.ID] = cat
	return cat, nil
}

func (l *inMemoryLedger) ListCategories(context.Context) ([]CategorySummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]CategorySummary, 0, len(l.categories))
	for _, cat := range l.categories {
		out = append(out, CategorySummary{Category: cat, TransactionCount: l.usage(cat.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *inMemoryLedger) GetCategory(_ context.Context, id int64) (CategorySummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cat, ok := l.categories[id]
	if !ok {
		return CategorySummary{}, ErrCategoryNotFound
	}
	return CategorySummary{Category: cat, TransactionCount: l.usage(id)}, nil
}

func (l *inMemoryLedger) RenameCategory(_ context.Context, id int64, name string) (Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cat, ok := l.categories[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	if l.nameTaken(name, id) {
		return Category{}, ErrDuplicateCategory
	}
	cat.Name = name
	cat.UpdatedAt = time.Now().UTC()
	l.categories[id] = cat
	return cat, nil
}

func (l *inMemoryLedger) DeleteCategory(_ context.Context, id int64, policy DeletePolicy) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	if policy == DeleteRestrict && l.usage(id) > 0 {
		return ErrCategoryInUse
	}
	now := time.Now().UTC()
	for txID, tx := range l.transactions {
		if tx.CategoryID == nil || *tx.CategoryID != id {
			continue
		}
		if policy == DeleteCascade {
			delete(l.transactions, txID)
			continue
		}
		tx.CategoryID = nil
		tx.UpdatedAt = now
		l.transactions[txID] = tx
	}
	delete(l.categories, id)
	return nil
}

// resolve attaches the category snapshot; callers hold the lock.
func (l *inMemoryLedger) resolve(tx Transaction) Transaction {
	tx.CategoryID = copyID(tx.CategoryID)
	tx.Category = nil
	if tx.CategoryID != nil {
		if cat, ok := l.categories[*tx.CategoryID]; ok {
			tx.Category = &cat
		}
	}
	return tx
}

func (l *inMemoryLedger) usage(categoryID int64) int {
	n := 0
	for _, tx := range l.transactions {
		if tx.CategoryID != nil && *tx.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (l *inMemoryLedger) nameTaken(name string, exceptID int64) bool {
	for id, cat := range l.categories {
		if id != exceptID && cat.Name == name {
			return true
		}
	}
	return false
}

func matches(tx Transaction, f TransactionFilter) bool {
	if tx.OwnerID != f.OwnerID {
		return false
	}
	if f.Kind != "" && tx.Kind != f.Kind {
		return false
	}
	if f.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *f.CategoryID) {
		return false
	}
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Date.After(*f.To) {
		return false
	}
	return true
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
