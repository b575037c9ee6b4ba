// Package screenshot persists best-effort PNG captures of a failing scenario.
package screenshot

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/productprobe/internal/driver"
	"github.com/adyen/productprobe/internal/logging"
)

// TimestampLayout is the time format appended to every file name.
const TimestampLayout = "20060102_150405"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Capturer writes screenshots into Dir.
type Capturer struct {
	Dir    string
	Logger *zap.Logger
	Now    func() time.Time
}

// FileName returns "{tag}_{timestamp}.png" with characters unsafe for file names replaced.
func FileName(tag string, at time.Time) string {
	return fmt.Sprintf("%s_%s.png", unsafeChars.ReplaceAllString(tag, "-"), at.Format(TimestampLayout))
}

// Capture saves a screenshot of the driver's page under tag. It never fails: errors are
// logged and an empty path is returned.
func (c Capturer) Capture(d driver.Driver, tag string) string {
	logger := logging.OrNop(c.Logger)
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	png, err := d.Screenshot()
	if err != nil {
		logger.Warn("screenshot capture failed", zap.String("tag", tag), zap.Error(err))
		return ""
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		logger.Warn("screenshot directory could not be created", zap.String("dir", c.Dir), zap.Error(err))
		return ""
	}

	path := filepath.Join(c.Dir, FileName(tag, now()))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		logger.Warn("screenshot could not be written", zap.String("path", path), zap.Error(err))
		return ""
	}
	logger.Info("screenshot saved", zap.String("path", path))
	return path
}
