package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"futures_guard/pkg/db"
	"futures_guard/pkg/logger"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// History — журнал действий по стопам: ограниченное кольцо в памяти для
// вывода на консоль плюс дозапись в файл и, если настроена, в postgres.
// Отказ любого из стоков не трогает основной цикл.
type History struct {
	mu      sync.Mutex
	entries []string
	keep    int

	filePath string
	txm      db.TxManager

	now func() time.Time
}

func NewHistory(keep int, filePath string, txm db.TxManager) *History {
	if keep <= 0 {
		keep = 200
	}
	return &History{
		keep:     keep,
		filePath: filePath,
		txm:      txm,
		now:      time.Now,
	}
}

// Add фиксирует запись во всех стоках. Ошибки записи глотаются: журнал
// вспомогательный, позиции важнее.
func (h *History) Add(ctx context.Context, msg string) {
	line := fmt.Sprintf("[%s] %s", h.now().Format(historyTimeLayout), msg)

	h.mu.Lock()
	h.entries = append(h.entries, line)
	if len(h.entries) > h.keep {
		h.entries = h.entries[len(h.entries)-h.keep:]
	}
	h.mu.Unlock()

	if h.filePath != "" {
		if err := h.appendFile(line); err != nil {
			logger.Warn("history: file append: %v", err)
		}
	}

	if h.txm != nil {
		err := h.txm.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
			_, errEx := tx.Exec(ctxTx,
				`INSERT INTO stop_audit (logged_at, message) VALUES ($1, $2)`,
				h.now(), msg)
			return errEx
		})
		if err != nil {
			logger.Warn("history: pg insert: %v", err)
		}
	}
}

// AddAll — пачка записей одного цикла.
func (h *History) AddAll(ctx context.Context, msgs []string) {
	for _, m := range msgs {
		h.Add(ctx, m)
	}
}

// Recent возвращает до n последних записей, свежие в конце.
func (h *History) Recent(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]string, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

func (h *History) appendFile(line string) error {
	f, err := os.OpenFile(h.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(line + "\n")
	return err
}
