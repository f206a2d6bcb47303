package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openmeet/ticketgate/internal/models"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
)

type redisScanLogRepository struct {
	cli *redis.Client
	l   pkgLog.Logger
}

func NewRedisScanLogRepository(cli *redis.Client, l pkgLog.Logger) ScanLogRepository {
	return &redisScanLogRepository{
		cli: cli,
		l:   l,
	}
}

// Append pushes to the head of the session's list so List reads
// most-recent-first without a sort.
func (r *redisScanLogRepository) Append(ctx context.Context, sessionID string, entry models.ScanEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal scan entry: %w", err)
	}

	key := r.key(sessionID)
	pipe := r.cli.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "repository.redisScanLogRepository.Append: %v", err)
		return err
	}

	return nil
}

func (r *redisScanLogRepository) List(ctx context.Context, sessionID string) ([]models.ScanEntry, error) {
	raw, err := r.cli.LRange(ctx, r.key(sessionID), 0, -1).Result()
	if err != nil {
		r.l.Errorf(ctx, "repository.redisScanLogRepository.List: %v", err)
		return nil, err
	}

	entries := make([]models.ScanEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.ScanEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			r.l.Warnf(ctx, "repository.redisScanLogRepository.List: skipping bad entry: %v", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *redisScanLogRepository) key(sessionID string) string {
	return fmt.Sprintf("ticketgate:scanlog:%s", sessionID)
}
