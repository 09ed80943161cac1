package setup

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/tnicklin/thimble-bot/config"
)

const (
	defaultMySQLPort = "3306"
	dbDialTimeout    = 5 * time.Second
)

// DSN formats MySQL connection settings as a driver DSN.
func DSN(db config.DBConfig) string {
	addr := db.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultMySQLPort)
	}

	c := mysql.NewConfig()
	c.User = db.User
	c.Passwd = db.Password
	c.Net = "tcp"
	c.Addr = addr
	c.DBName = db.Database
	c.Timeout = dbDialTimeout
	return c.FormatDSN()
}

// PingDB opens a connection with the given settings and pings the server.
func PingDB(ctx context.Context, db config.DBConfig) error {
	conn, err := sql.Open("mysql", DSN(db))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, dbDialTimeout)
	defer cancel()
	return conn.PingContext(ctx)
}
