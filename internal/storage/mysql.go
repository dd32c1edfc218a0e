package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/logger"
	"github.com/Saking-tech/Resume-parser/internal/storage/models"
	"github.com/Saking-tech/Resume-parser/internal/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("resume-parser/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 为 GORM 的每次操作创建一个 span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
		after    func(name string, fn func(*gorm.DB)) error
	}{
		{"CREATE", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"RAW", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.register("otel:before_"+s.op, p.before(s.op)); err != nil {
			return err
		}
		if err := s.after("otel:after_"+s.op, p.after()); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		ctx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			),
		)
		db.Statement.Context = context.WithValue(ctx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if sql := db.Statement.SQL.String(); sql != "" {
			span.SetAttributes(attribute.String("db.statement", tracing.SafeSQL(sql)))
		}
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查无记录属于正常分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// MySQL 解析结果持久化
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端，AutoMigrate 开启时迁移 parsed_resumes 和 outbox_messages 表
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.ConnectTimeoutSeconds)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if cfg.AutoMigrate {
		if err := m.db.Session(&gorm.Session{Logger: gormlogger.Discard}).AutoMigrate(&models.ParsedResume{}, &models.OutboxMessage{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
		}
	}

	logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("成功连接到MySQL")
	return m, nil
}

// gormLogLevel 1-4 对应 Silent/Error/Warn/Info
func gormLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveParsedResume 按 submission_uuid 插入或覆盖
func (m *MySQL) SaveParsedResume(ctx context.Context, row *models.ParsedResume) error {
	if row == nil || row.SubmissionUUID == "" {
		return fmt.Errorf("parsed resume requires a submission uuid")
	}
	if err := upsertParsedResume(m.db.WithContext(ctx), row); err != nil {
		return fmt.Errorf("save parsed resume %s: %w", row.SubmissionUUID, err)
	}
	return nil
}

func upsertParsedResume(db *gorm.DB, row *models.ParsedResume) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_uuid"}},
		UpdateAll: true,
	}).Create(row).Error
}

// SaveParsedResumeWithEvent 在同一事务中写入解析结果和发件箱消息
func (m *MySQL) SaveParsedResumeWithEvent(ctx context.Context, row *models.ParsedResume, msg *models.OutboxMessage) error {
	if row == nil || row.SubmissionUUID == "" {
		return fmt.Errorf("parsed resume requires a submission uuid")
	}
	if msg == nil {
		return m.SaveParsedResume(ctx, row)
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertParsedResume(tx, row); err != nil {
			return err
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		return fmt.Errorf("save parsed resume %s with event: %w", row.SubmissionUUID, err)
	}
	return nil
}

// ProcessOutbox 锁定一批 PENDING 消息逐条调用 publish，并在同一事务内更新状态。
// FOR UPDATE SKIP LOCKED 让多个实例可以同时中继而不会重复投递
func (m *MySQL) ProcessOutbox(ctx context.Context, batchSize int, publish func(context.Context, *models.OutboxMessage) error) (int, error) {
	var processed int
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var messages []models.OutboxMessage
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", models.OutboxStatusPending).
			Order("created_at asc").
			Limit(batchSize).
			Find(&messages).Error
		if err != nil {
			return fmt.Errorf("fetch pending outbox messages: %w", err)
		}

		for i := range messages {
			msg := &messages[i]
			if err := publish(ctx, msg); err != nil {
				msg.MarkAttemptFailed(err)
			} else {
				msg.MarkSent(time.Now())
			}
			// 更新失败时整批回滚，下一轮重新拾取
			if err := tx.Save(msg).Error; err != nil {
				return fmt.Errorf("update outbox message %d: %w", msg.ID, err)
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

// GetParsedResume 按 submission_uuid 读取
func (m *MySQL) GetParsedResume(ctx context.Context, submissionUUID string) (*models.ParsedResume, error) {
	var row models.ParsedResume
	err := m.db.WithContext(ctx).First(&row, "submission_uuid = ?", submissionUUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get parsed resume %s: %w", submissionUUID, err)
	}
	return &row, nil
}
