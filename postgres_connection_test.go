package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionSettings(t *testing.T) {
	cs := &ConnectionSettings{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		Database: "test",
	}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=test sslmode=require", cs.String())

	cp := cs.Copy()
	cp.DisableSSL = true
	cp.MaxOpenConns = 4
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=test sslmode=disable pool_max_conns=4", cp.String())
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=test sslmode=disable", cp.connString())
	assert.False(t, cs.DisableSSL)
}

func TestSampleTableName(t *testing.T) {
	assert.Equal(t, "sample_data", SampleTableName("SampleData"))
	assert.Equal(t, "sample_data", SampleTableName("sample_data"))
	assert.Equal(t, "", SampleTableName(""))
}

func TestMemoryMB(t *testing.T) {
	assert.Greater(t, memoryMB(), int64(0))
}
