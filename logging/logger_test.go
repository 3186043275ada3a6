package logging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		raw       json.RawMessage
		formatter logrus.Formatter
		level     logrus.Level
		header    string
		wantErr   bool
	}{
		{"default", nil, &logrus.TextFormatter{}, logrus.InfoLevel, defaultTraceIDHeader, false},
		{"text", json.RawMessage(`{"format":"text"}`), &logrus.TextFormatter{}, logrus.InfoLevel, defaultTraceIDHeader, false},
		{"json", json.RawMessage(`{"format":"JSON","level":"debug","traceHeader":"X-Trace"}`), &logrus.JSONFormatter{}, logrus.DebugLevel, "X-Trace", false},
		{"common", json.RawMessage(`{"format":"common"}`), &CommonLogFormat{}, logrus.InfoLevel, defaultTraceIDHeader, false},
		{"fail format", json.RawMessage(`{"format":"xml"}`), nil, 0, "", true},
		{"fail level", json.RawMessage(`{"level":"loud"}`), nil, 0, "", true},
		{"fail json", json.RawMessage(`{"format":`), nil, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New("cmp-validator", tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.formatter, l.Formatter)
			assert.Equal(t, tt.level, l.GetLevel())
			assert.Equal(t, tt.header, l.GetTraceHeader())
			assert.Same(t, l.Logger, l.GetImpl())
		})
	}
}

func TestCommonLogFormat(t *testing.T) {
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	entry := &logrus.Entry{Data: logrus.Fields{
		"request-id":     "reqID",
		"remote-address": "10.0.0.1",
		"name":           "cmp-validator",
		"profile":        "",
		"time":           ts,
		"duration":       1500 * time.Millisecond,
		"method":         "POST",
		"path":           "/profiles/ra/validate",
		"protocol":       "HTTP/1.1",
		"status":         200,
		"size":           int64(42),
	}}
	b, err := new(CommonLogFormat).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, `reqID 10.0.0.1 cmp-validator - 2026-10-19T12:00:00Z 1500 "POST /profiles/ra/validate HTTP/1.1" 200 42`+"\n", string(b))

	b, err = new(CommonLogFormat).Format(&logrus.Entry{Data: logrus.Fields{}})
	require.NoError(t, err)
	assert.Equal(t, `- - - - - - "- - -" - -`+"\n", string(b))
}
