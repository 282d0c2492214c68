package sqldriver

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLConfig holds the connection parameters for a MySQL backend.
type MySQLConfig struct {
	Host     string // host:port, e.g. "127.0.0.1:3306"
	User     string
	Password string
	Database string
}

// MySQL opens a Source backed by the MySQL driver.
func MySQL(cfg MySQLConfig) (*Source, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("mysql: host and database are required")
	}
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = cfg.Host
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.ParseTime = true
	return Open("mysql", mc.FormatDSN())
}
