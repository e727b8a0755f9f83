package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("FIELDLOG_API_URL", "https://api.example.com")
	t.Setenv("FIELDLOG_DB", "/tmp/creds.db")

	conf, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", conf.APIURL)
	assert.Equal(t, "/tmp/creds.db", conf.DB)
	assert.Equal(t, "android", conf.Platform)
}
