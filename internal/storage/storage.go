package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖。每个组件都是可选的，未配置时为 nil
type Storage struct {
	// 原始文件归档
	MinIO *MinIO

	// 解析完成事件
	RabbitMQ *RabbitMQ

	// 解析结果持久化
	MySQL *MySQL

	// 解析结果缓存
	Redis *Redis

	// MySQL 和 RabbitMQ 都可用且开启 use_outbox 时非 nil
	Outbox *ResumeEventOutbox
}

// NewStorage 按配置初始化各组件。单个组件失败只记录警告；
// 配置了但全部失败时返回错误，什么都没配置时返回空的 Storage
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	log := logger.Component("storage")
	s := &Storage{}
	var (
		configured int
		initErrs   []error
	)

	if cfg.Redis.Address != "" {
		configured++
		r, err := NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("初始化Redis失败")
			initErrs = append(initErrs, fmt.Errorf("redis: %w", err))
		} else {
			s.Redis = r
		}
	}

	if cfg.MySQL.Host != "" {
		configured++
		m, err := NewMySQL(&cfg.MySQL)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MySQL失败")
			initErrs = append(initErrs, fmt.Errorf("mysql: %w", err))
		} else {
			s.MySQL = m
		}
	}

	if cfg.MinIO.Endpoint != "" {
		configured++
		m, err := NewMinIO(ctx, &cfg.MinIO)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MinIO失败")
			initErrs = append(initErrs, fmt.Errorf("minio: %w", err))
		} else {
			s.MinIO = m
		}
	}

	if cfg.RabbitMQ.URL != "" {
		configured++
		mq, err := NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			log.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrs = append(initErrs, fmt.Errorf("rabbitmq: %w", err))
		} else {
			s.RabbitMQ = mq
		}
	}

	if s.MySQL != nil && s.RabbitMQ != nil && cfg.RabbitMQ.UseOutbox {
		s.Outbox = NewResumeEventOutbox(s.MySQL, &cfg.RabbitMQ)
	}

	if configured > 0 && len(initErrs) == configured {
		return nil, fmt.Errorf("所有存储组件初始化失败: %w", errors.Join(initErrs...))
	}
	log.Info().
		Bool("redis", s.Redis != nil).
		Bool("mysql", s.MySQL != nil).
		Bool("minio", s.MinIO != nil).
		Bool("rabbitmq", s.RabbitMQ != nil).
		Bool("outbox", s.Outbox != nil).
		Msg("存储组件初始化完成")
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s == nil {
		return
	}
	log := logger.Component("storage")
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
