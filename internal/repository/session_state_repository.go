package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// SessionStateRepository 进行中练习快照的 Redis 存取。
// 每个计划最多一个槽位，TTL 到期自动清理放弃的会话。
type SessionStateRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewSessionStateRepository(rdb *redis.Client, ttl time.Duration) *SessionStateRepository {
	return &SessionStateRepository{RDB: rdb, TTL: ttl}
}

func sessionKey(planID string) string {
	return fmt.Sprintf("practice:session:%s", planID)
}

func (r *SessionStateRepository) Save(ctx context.Context, state *model.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, sessionKey(state.PlanID), payload, r.TTL).Err()
}

func (r *SessionStateRepository) Get(ctx context.Context, planID string) (*model.SessionState, error) {
	payload, err := r.RDB.Get(ctx, sessionKey(planID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var state model.SessionState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *SessionStateRepository) Clear(ctx context.Context, planID string) error {
	return r.RDB.Del(ctx, sessionKey(planID)).Err()
}
