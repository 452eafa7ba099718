package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
)

// IsTransientErr 判断存储错误是否为临时性故障：超时、连接断开、
// 锁等待超时/死锁。这类错误重试可能成功。
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1205, 1213: // lock wait timeout / deadlock
			return true
		}
	}
	return false
}

// WrapTransient 在仓储层出口归类错误：临时性故障标记为可重试
// （上层按 Transient 退避重试或返回 503），其余原样返回。
func WrapTransient(msg string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransientErr(err) {
		return apperr.Wrap(apperr.KindTransient, msg, err)
	}
	return err
}
