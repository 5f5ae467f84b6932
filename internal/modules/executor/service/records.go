package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"

	"futures_guard/internal/models"
	"futures_guard/pkg/logger"
)

const recordsKey = "trading_records"

// Records пишет историю сделок в redis-список. Без redis работает как
// no-op: исполнение приказов важнее истории.
type Records struct {
	rdb *redis.Client
}

func NewRecords(rdb *redis.Client) *Records {
	return &Records{rdb: rdb}
}

func (r *Records) Push(ctx context.Context, rec models.TradeRecord) {
	if r == nil || r.rdb == nil {
		return
	}
	raw, err := sonic.Marshal(rec)
	if err != nil {
		logger.Error("records: marshal: %v", err)
		return
	}
	if err := r.rdb.LPush(ctx, recordsKey, raw).Err(); err != nil {
		logger.Warn("records: lpush: %v", err)
	}
}

// Recent читает до n последних записей, свежие первыми.
func (r *Records) Recent(ctx context.Context, n int) ([]models.TradeRecord, error) {
	if r == nil || r.rdb == nil {
		return nil, nil
	}
	raws, err := r.rdb.LRange(ctx, recordsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]models.TradeRecord, 0, len(raws))
	for _, raw := range raws {
		var rec models.TradeRecord
		if err := sonic.UnmarshalString(raw, &rec); err != nil {
			continue // битая запись не должна прятать остальные
		}
		out = append(out, rec)
	}
	return out, nil
}
