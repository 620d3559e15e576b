package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dsn = "postgres://insight:hunter2@db:5432/transit"

func TestSecretString_NeverFormatsRawValue(t *testing.T) {
	s := SecretString(dsn)

	for _, verb := range []string{"%s", "%v", "%+v", "%#v", "%q"} {
		assert.NotContains(t, fmt.Sprintf(verb, s), "hunter2", verb)
	}
}

func TestSecretString_JSON(t *testing.T) {
	cfg := struct {
		URL SecretString `json:"url"`
	}{URL: dsn}

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"[redacted]"}`, string(out))
}

func TestSecretString_Slog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("connecting", "dsn", SecretString(dsn))

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), redacted)
}

func TestSecretString_Reveal(t *testing.T) {
	s := SecretString(dsn)
	assert.Equal(t, dsn, s.Reveal())
	assert.True(t, s.IsSet())
	assert.False(t, SecretString("").IsSet())
}
