package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetFormatter(&CustomFormatter{SystemName: "task-manager"})

	l.WithFields(logrus.Fields{"user": "u1", "task": "t1"}).Warn("Event ID: TASK_UPDATE, Description: updated")

	line := buf.String()
	require.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "Event Source: task-manager")
	assert.Contains(t, line, "Event Type: WARNING")
	assert.Contains(t, line, "Message: Event ID: TASK_UPDATE, Description: updated")
	// fields are sorted by key
	assert.Contains(t, line, ", task=t1, user=u1")
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestConfigureLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{name: "default", level: "", want: logrus.InfoLevel},
		{name: "debug", level: "debug", want: logrus.DebugLevel},
		{name: "invalid falls back", level: "loud", want: logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := logrus.New()
			configure(l, Options{SystemName: "test", Level: tt.level})
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}
