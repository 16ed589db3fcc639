package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name      string
		level     string
		wantDebug bool
	}{
		{name: "debug level keeps debug records", level: "debug", wantDebug: true},
		{name: "info level drops debug records", level: "info"},
		{name: "unknown level falls back to info", level: "verbose"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			logger := NewLogger(tc.level, "json", "realityserver", out)

			logger.Debug("debug record")
			logger.Info("info record")

			lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
			if tc.wantDebug {
				require.Len(t, lines, 2)
			} else {
				require.Len(t, lines, 1)
			}

			var record map[string]any
			require.NoError(t, json.Unmarshal(lines[len(lines)-1], &record))
			assert.Equal(t, "info record", record["msg"])
			assert.Equal(t, "realityserver", record["service"])
		})
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	out := &bytes.Buffer{}
	NewLogger("info", "text", "screen", out).Info("hello")
	assert.Contains(t, out.String(), "msg=hello")
	assert.Contains(t, out.String(), "service=screen")
}
