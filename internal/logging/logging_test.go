package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSON(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		InitDefault()
	})
	viper.Set(LevelKey, "warn")
	viper.Set(FormatKey, "json")

	var buf bytes.Buffer
	Init(&buf)

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("rule", "r1").Msg("visible")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "visible", line["message"])
	assert.Equal(t, "r1", line["rule"])
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMultiLogger(NewZLogger(zerolog.New(&a)), NewZLogger(zerolog.New(&b)))
	m.Warn("rule %s is stale", "r1")

	assert.Contains(t, a.String(), "rule r1 is stale")
	assert.Contains(t, b.String(), "rule r1 is stale")
}
