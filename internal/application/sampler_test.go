package application_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscalsync/fiscalsync/internal/application"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogSampler_LogsEachEventOnce(t *testing.T) {
	buf := captureLog(t)
	sampler := application.NewLogSampler()

	for i := 0; i < 100; i++ {
		sampler.Sample("sales_missing_key", "doc", i)
	}
	sampler.Sample("pdf_decode_failed")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "sales_missing_key"))
	assert.Equal(t, 1, strings.Count(out, "pdf_decode_failed"))
}

func TestLogSampler_FreshInstanceSamplesAgain(t *testing.T) {
	buf := captureLog(t)

	application.NewLogSampler().Sample("sales_missing_key")
	application.NewLogSampler().Sample("sales_missing_key")

	assert.Equal(t, 2, strings.Count(buf.String(), "sales_missing_key"))
}
