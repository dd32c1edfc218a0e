package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/constants"
	"github.com/Saking-tech/Resume-parser/internal/tracing"
	"github.com/Saking-tech/Resume-parser/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound 缓存未命中
var ErrNotFound = errors.New("record not found")

var redisTracer = otel.Tracer("resume-parser/storage/redis")

// Redis 解析结果缓存与原始文件去重集合
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建 Redis 客户端并检查连通性
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	// 所有命令都记录到 OpenTelemetry
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// RecordKey 解析结果缓存键，包含解析器版本，升级后自动失效
func RecordKey(textMD5 string) string {
	return fmt.Sprintf(constants.KeyParsedRecord, constants.ParserVersion, textMD5)
}

// RecordTTL 配置的缓存时间，未配置时为 7 天
func (r *Redis) RecordTTL() time.Duration {
	if r.config == nil || r.config.RecordTTLHours <= 0 {
		return constants.DefaultRecordCacheTTL
	}
	return time.Duration(r.config.RecordTTLHours) * time.Hour
}

// GetCachedRecord 按文本 MD5 读取缓存的解析结果，未命中返回 ErrNotFound
func (r *Redis) GetCachedRecord(ctx context.Context, textMD5 string) (*types.ResumeRecord, error) {
	key := RecordKey(textMD5)
	ctx, span := r.startSpan(ctx, "Redis.GetCachedRecord", key)
	defer span.End()

	data, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, ErrNotFound
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeRedis))
		return nil, fmt.Errorf("get cached record: %w", err)
	}

	var rec types.ResumeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// 损坏的缓存按未命中处理，由调用方重新解析后覆盖
		span.SetAttributes(attribute.Bool("cache.corrupt", true))
		return nil, ErrNotFound
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &rec, nil
}

// CacheRecord 写入解析结果缓存
func (r *Redis) CacheRecord(ctx context.Context, textMD5 string, rec *types.ResumeRecord) error {
	key := RecordKey(textMD5)
	ctx, span := r.startSpan(ctx, "Redis.CacheRecord", key)
	defer span.End()

	data, err := json.Marshal(rec)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return fmt.Errorf("marshal resume record: %w", err)
	}
	if err := r.Client.Set(ctx, key, data, r.RecordTTL()).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeRedis))
		return fmt.Errorf("cache resume record: %w", err)
	}
	return nil
}

// MarkFileSeen 把原始文件 MD5 加入去重集合，返回此前是否已存在
func (r *Redis) MarkFileSeen(ctx context.Context, fileMD5 string) (bool, error) {
	ctx, span := r.startSpan(ctx, "Redis.MarkFileSeen", constants.KeyFileMD5Set)
	defer span.End()

	pipe := r.Client.TxPipeline()
	added := pipe.SAdd(ctx, constants.KeyFileMD5Set, fileMD5)
	pipe.Expire(ctx, constants.KeyFileMD5Set, r.RecordTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeRedis))
		return false, fmt.Errorf("mark file md5: %w", err)
	}
	seen := added.Val() == 0
	span.SetAttributes(attribute.Bool("file.duplicate", seen))
	return seen, nil
}

func (r *Redis) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return redisTracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		),
	)
}
