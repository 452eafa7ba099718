package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
)

func TestIsTransientErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"bad conn", driver.ErrBadConn, true},
		{"invalid conn", mysql.ErrInvalidConn, true},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205}, true},
		{"deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"duplicate key", &mysql.MySQLError{Number: 1062}, false},
		{"not found", gorm.ErrRecordNotFound, false},
		{"canceled", context.Canceled, false},
	}
	for _, c := range cases {
		if got := IsTransientErr(c.err); got != c.want {
			t.Errorf("%s: IsTransientErr = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestWrapTransient(t *testing.T) {
	err := WrapTransient("apply snapshot", context.DeadlineExceeded)
	if apperr.KindOf(err) != apperr.KindTransient {
		t.Fatalf("deadline should map to Transient, got kind %v", apperr.KindOf(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("wrapped error must keep the cause chain")
	}

	raw := gorm.ErrRecordNotFound
	if got := WrapTransient("find", raw); got != raw {
		t.Fatalf("non-transient error must pass through unchanged, got %v", got)
	}
	if WrapTransient("noop", nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
