package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/uachado/uachado/pkg/configs"
)

// createSQLiteDialector 创建SQLite dialector (纯Go实现，无需CGo).
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(dsn)
}

// 注册SQLite dialector工厂函数.
func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
