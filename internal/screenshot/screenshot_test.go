package screenshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adyen/productprobe/internal/driver/drivertest"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

func TestFileName(t *testing.T) {
	at := fixedNow()
	assert.Equal(t, "CreateProduct_ValidData_20240309_140507.png", FileName("CreateProduct_ValidData", at))
	assert.Equal(t, "a-b_fill_20240309_140507.png", FileName("a/b_fill", at))
}

func TestCapture_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Screenshots")
	d := drivertest.New(nil)

	path := Capturer{Dir: dir, Now: fixedNow}.Capture(d, "CreateProduct_ZeroPrice_submit")

	require.Equal(t, filepath.Join(dir, "CreateProduct_ZeroPrice_submit_20240309_140507.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0x89), data[0])
	assert.Equal(t, 1, d.Shots)
}

func TestCapture_DriverErrorIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := drivertest.New(nil)
	d.ScreenshotErr = errors.New("page crashed")
	dir := t.TempDir()

	path := Capturer{Dir: dir, Logger: zap.New(core), Now: fixedNow}.Capture(d, "x")

	assert.Empty(t, path)
	assert.Equal(t, 1, logs.FilterMessage("screenshot capture failed").Len())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCapture_UnwritableDirectory(t *testing.T) {
	// a regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	path := Capturer{Dir: filepath.Join(blocker, "shots"), Now: fixedNow}.Capture(drivertest.New(nil), "x")
	assert.Empty(t, path)
}
