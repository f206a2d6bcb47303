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

type redisGateSessionRepository struct {
	cli *redis.Client
	l   pkgLog.Logger
}

func NewRedisGateSessionRepository(cli *redis.Client, l pkgLog.Logger) GateSessionRepository {
	return &redisGateSessionRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisGateSessionRepository) Save(ctx context.Context, ss *models.GateSession, ttl time.Duration) error {
	data, err := json.Marshal(ss)
	if err != nil {
		return fmt.Errorf("failed to marshal gate session: %w", err)
	}

	if err := r.cli.Set(ctx, r.key(ss.ID, ss.EventID), data, ttl).Err(); err != nil {
		r.l.Errorf(ctx, "repository.redisGateSessionRepository.Save: %v", err)
		return err
	}

	return nil
}

func (r *redisGateSessionRepository) Get(ctx context.Context, sessionID, eventID string) (*models.GateSession, error) {
	data, err := r.cli.Get(ctx, r.key(sessionID, eventID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrGateSessionNotFound
		}
		r.l.Errorf(ctx, "repository.redisGateSessionRepository.Get: %v", err)
		return nil, err
	}

	var ss models.GateSession
	if err := json.Unmarshal(data, &ss); err != nil {
		r.l.Errorf(ctx, "repository.redisGateSessionRepository.Get: %v", err)
		return nil, err
	}

	return &ss, nil
}

func (r *redisGateSessionRepository) Delete(ctx context.Context, sessionID, eventID string) error {
	if err := r.cli.Del(ctx, r.key(sessionID, eventID)).Err(); err != nil {
		r.l.Errorf(ctx, "repository.redisGateSessionRepository.Delete: %v", err)
		return err
	}
	return nil
}

func (r *redisGateSessionRepository) key(sessionID, eventID string) string {
	return fmt.Sprintf("ticketgate:gate:%s:%s", sessionID, eventID)
}
