package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("default level drops debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "")
		log.Debug("hidden")
		log.Info("shown", "request_id", "r-1")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"msg":"shown"`)
		assert.Contains(t, out, `"service":"casestatus"`)
		assert.Contains(t, out, `"request_id":"r-1"`)
	})

	t.Run("debug level keeps debug", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "DEBUG").Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})
}
