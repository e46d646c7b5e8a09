package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.BillCounterRepository = (*BillCounter)(nil)

// counterTTL mantiene la clave del día lo suficiente para cubrir zonas horarias y reintentos.
const counterTTL = 72 * time.Hour

// BillCounter consecutivo diario con INCR. Si la transacción que pidió el número falla,
// el número se pierde (hueco), pero nunca se repite.
type BillCounter struct {
	c *Client
}

// NewBillCounter construye el contador.
func NewBillCounter(c *Client) *BillCounter {
	return &BillCounter{c: c}
}

// Next incrementa billseq:{workspace}:{day}.
func (b *BillCounter) Next(ctx context.Context, workspaceID, day string) (int64, error) {
	key := fmt.Sprintf("billseq:%s:%s", workspaceID, day)
	seq, err := b.c.nextSeqScript.Run(ctx, b.c.rdb, []string{key}, int64(counterTTL.Seconds())).Int64()
	if err != nil {
		return 0, fmt.Errorf("next bill seq: %w", err)
	}
	return seq, nil
}
