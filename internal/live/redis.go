package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/metrics"
	"github.com/redis/go-redis/v9"
)

// SnapshotCache 把车辆最新状态写入 Redis：
// - HSET vehicle:{id}:state 供轮询端快速读取（带 TTL，车停报后自动过期）
// - PUBLISH vehicle.updates 供其他实例转发到各自的 WebSocket 房间
type SnapshotCache struct {
	rdb     *redis.Client
	channel string
	ttl     time.Duration
	log     logger.Logger
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewSnapshotCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SnapshotCache{rdb: rdb, channel: "vehicle.updates", ttl: ttl, log: log}
}

func stateKey(vehicleID string) string {
	return "vehicle:" + vehicleID + ":state"
}

// Publish 写快照哈希并广播；失败只记日志不影响上报。
func (s *SnapshotCache) Publish(ctx context.Context, u VehicleUpdate) {
	if s == nil || s.rdb == nil {
		return
	}
	key := stateKey(u.VehicleID)

	fields := map[string]interface{}{
		"company_id":  u.CompanyID,
		"snapshot":    string(u.Snapshot),
		"odometer_km": u.OdometerKM,
		"captured_at": u.CapturedAt.Format(time.RFC3339Nano),
	}
	if u.EmployeeID != nil {
		fields["employee_id"] = *u.EmployeeID
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.BroadcastDrops.WithLabelValues("redis").Inc()
		if s.log != nil {
			s.log.Warnf("redis snapshot write failed vehicle_id=%s err=%v", u.VehicleID, err)
		}
		return
	}

	payload, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		metrics.BroadcastDrops.WithLabelValues("redis").Inc()
		if s.log != nil {
			s.log.Warnf("redis publish failed vehicle_id=%s err=%v", u.VehicleID, err)
		}
	}
}

// ReadState 读取某辆车的最新快照哈希；不存在返回空 map。
func (s *SnapshotCache) ReadState(ctx context.Context, vehicleID string) (map[string]string, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("snapshot cache not initialized")
	}
	return s.rdb.HGetAll(ctx, stateKey(vehicleID)).Result()
}

// Relay 订阅跨实例通道，把其他实例的更新转发到本地 Hub。
// 本实例发出的消息按 Origin 过滤，避免房间里收到重复推送。
// 随 ctx 结束退出。
func (s *SnapshotCache) Relay(ctx context.Context, hub *Hub, selfOrigin string) {
	if s == nil || s.rdb == nil || hub == nil {
		return
	}
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var u VehicleUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
				continue
			}
			if selfOrigin != "" && u.Origin == selfOrigin {
				continue
			}
			hub.Publish(ctx, u)
		}
	}
}
