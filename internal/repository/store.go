package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/model"
)

// Store 聚合各仓储，WithTx 内返回的 Store 绑定同一事务
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Users() UserRepository               { return NewUserRepository(s.db) }
func (s *Store) Postings() PostingRepository         { return NewPostingRepository(s.db) }
func (s *Store) Applications() ApplicationRepository { return NewApplicationRepository(s.db) }
func (s *Store) Views() ViewRepository               { return NewViewRepository(s.db) }
func (s *Store) Metrics() MetricRepository           { return NewMetricRepository(s.db) }
func (s *Store) Analytics() AnalyticsRepository      { return NewAnalyticsRepository(s.db) }

// WithTx 在单个事务中执行 fn，fn 返回错误则整体回滚
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// InitSchema 初始化表结构
func (s *Store) InitSchema() error {
	if err := s.db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping 检查数据库连接
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
