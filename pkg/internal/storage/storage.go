// Package storage 聚合数据库、对象存储、消息队列与键值存储资源.
//
// Example:
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//	    // 处理错误
//	}
//
//	dbClient := mgr.GetDBClient()
//	s3Client := mgr.GetS3Client()
package storage

import (
	"context"
	"sync"

	"github.com/uachado/uachado/pkg/configs"
	dbc "github.com/uachado/uachado/pkg/internal/storage/db"
	kvc "github.com/uachado/uachado/pkg/internal/storage/kv"
	mqc "github.com/uachado/uachado/pkg/internal/storage/mq"
	s3c "github.com/uachado/uachado/pkg/internal/storage/s3"
	nlog "github.com/uachado/uachado/pkg/log"
)

// Manager 聚合所有存储资源. 字段导出以便测试中直接组装.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	MQ *mqc.Client
	KV *kvc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置. 重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		if dbi, e := dbc.New(ctx, &cfg.DB); e != nil {
			err = e

			return
		} else {
			m.DB = dbi
		}

		// S3 不可用时降级运行：物品照常登记，只是不带图片
		if s3i, e := s3c.New(ctx, &cfg.S3); e != nil {
			nlog.Logger().Warn().Err(e).Msg("s3 unavailable, images disabled")
		} else {
			m.S3 = s3i
		}

		// MQ
		if mqi, e := mqc.New(ctx, &cfg.MQ); e != nil {
			err = e

			return
		} else {
			m.MQ = mqi
		}

		// KV
		if kvi, e := kvc.New(ctx, &cfg.KV); e != nil {
			err = e

			return
		} else {
			m.KV = kvi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// Close 释放所有存储资源.
func (m *Manager) Close() error {
	var err error

	if m.MQ != nil {
		if e := m.MQ.Close(); e != nil {
			err = e
		}
	}

	if m.KV != nil {
		if e := m.KV.Close(); e != nil {
			err = e
		}
	}

	if m.S3 != nil {
		if e := m.S3.Close(); e != nil {
			err = e
		}
	}

	if m.DB != nil {
		if sqlDB, e := m.DB.DB.DB(); e == nil {
			if e := sqlDB.Close(); e != nil {
				err = e
			}
		}
	}

	return err
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}
