// Package memory implementa los puertos de persistencia en memoria. Una transacción toma
// el candado global del Store y anota funciones de deshacer; si el callback falla se
// ejecutan en orden inverso. Pensado para tests y ejecución local.
package memory

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	customers map[string]entity.Customer
	products  map[string]entity.Product
	skus      map[string]string // workspace|sku -> productID
	stock     map[string]decimal.Decimal
	bills     map[string]*entity.Bill
	numbers   map[string]string // workspace|billNumber -> billID
	counters  map[string]int64  // workspace|day -> último consecutivo
	movements []entity.StockMovement
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]entity.Customer),
		products:  make(map[string]entity.Product),
		skus:      make(map[string]string),
		stock:     make(map[string]decimal.Decimal),
		bills:     make(map[string]*entity.Bill),
		numbers:   make(map[string]string),
		counters:  make(map[string]int64),
	}
}

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

// txLog funciones de deshacer de la transacción en curso.
type txLog struct {
	undo []func()
}

func (t *txLog) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// scope da a cada repositorio el candado correcto: dentro de una transacción el runner ya
// tiene el candado exclusivo; fuera, cada método lo toma por su cuenta.
type scope struct {
	s  *Store
	tx *txLog
}

func (sc scope) lock() func() {
	if sc.tx != nil {
		return func() {}
	}
	sc.s.mu.Lock()
	return sc.s.mu.Unlock
}

func (sc scope) rlock() func() {
	if sc.tx != nil {
		return func() {}
	}
	sc.s.mu.RLock()
	return sc.s.mu.RUnlock
}

func (sc scope) onRollback(fn func()) {
	if sc.tx != nil {
		sc.tx.undo = append(sc.tx.undo, fn)
	}
}
