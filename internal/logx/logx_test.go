package logx

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = old })
	return &buf
}

func TestFromCtxCarriesJobAndUser(t *testing.T) {
	buf := capture(t)

	ctx := WithJob(WithUser(context.Background(), 42), "01JTEST")
	FromCtx(ctx).Info().Msg("ping")

	out := buf.String()
	assert.Contains(t, out, `"jid":"01JTEST"`)
	assert.Contains(t, out, `"uid":42`)
	assert.Contains(t, out, "ping")
}

func TestFromCtxBareContext(t *testing.T) {
	buf := capture(t)

	FromCtx(context.Background()).Warn().Msg("bare")

	out := buf.String()
	assert.Contains(t, out, "bare")
	assert.NotContains(t, out, "jid")
}
