package oceanbase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/methmouth/Robot/pkg/storage/oceanbase"
)

func TestDSN(t *testing.T) {
	cfg := &oceanbase.Config{Host: "127.0.0.1", Port: 2881, User: "root@sys", Password: "secret", DBName: "atlas"}
	dsn := cfg.DSN()

	assert.Contains(t, dsn, "root@sys:secret@tcp(127.0.0.1:2881)/atlas")
	assert.Contains(t, dsn, "parseTime=true")
}
