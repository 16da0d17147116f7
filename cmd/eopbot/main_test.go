package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eopbot/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateListsSources(t *testing.T) {
	t.Setenv(config.TokenEnv, "tok")
	p := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(p, []byte("telegram:\n  channel_id: -42\npaypal:\n  enabled: false\n"), 0o600))

	out, err := execute(t, "validate", "--config", p)
	require.NoError(t, err)
	assert.Contains(t, out, "config ok")
	assert.Contains(t, out, "channel: -42")
	assert.Contains(t, out, "mediawiki 0.0.0.0:3000 (MediaWiki, html)")
	assert.Contains(t, out, "jira      0.0.0.0:9293 (Jira, html)")
	assert.Contains(t, out, "paypal    disabled")
}

func TestValidateReportsErrors(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	p := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"telegram":{"channel_id":1}}`), 0o600))

	_, err := execute(t, "validate", "-c", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.token")
}

func TestRootRejectsArgs(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}
