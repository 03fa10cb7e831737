package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	debugMu     sync.RWMutex
	debugLogger = zap.NewNop().Sugar()
	debugPath   string
	verbose     bool
)

// SetVerbose toggles mirroring of debug lines to stderr.
func SetVerbose(v bool) {
	debugMu.Lock()
	verbose = v
	debugMu.Unlock()
}

// ConfigureDebug points the debug log at a timestamped file inside logsDir.
// An empty logsDir leaves debug logging disabled unless verbose is set.
func ConfigureDebug(logsDir string) error {
	debugMu.Lock()
	defer debugMu.Unlock()

	var outputs []string
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		debugPath = filepath.Join(logsDir, fmt.Sprintf("debug-%s.log", time.Now().Format("20060102-150405")))
		outputs = append(outputs, debugPath)
	}
	if verbose {
		outputs = append(outputs, "stderr")
	}
	if len(outputs) == 0 {
		debugLogger = zap.NewNop().Sugar()
		return nil
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = outputs
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build debug logger: %w", err)
	}
	debugLogger = logger.Sugar()
	return nil
}

// DebugLogPath returns the active debug log file, or "" when none is configured.
func DebugLogPath() string {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugPath
}

// Debug writes a formatted line to the debug log.
func Debug(format string, args ...any) {
	debugMu.RLock()
	l := debugLogger
	debugMu.RUnlock()
	l.Debugf(format, args...)
}

// SyncDebug flushes buffered debug output.
func SyncDebug() {
	debugMu.RLock()
	l := debugLogger
	debugMu.RUnlock()
	_ = l.Sync()
}

// CleanupLogs keeps the newest keep debug logs in logsDir and removes the rest.
func CleanupLogs(logsDir string, keep int) {
	if logsDir == "" || keep <= 0 {
		return
	}
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "debug-") && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, e.Name())
		}
	}
	if len(logs) <= keep {
		return
	}
	// names embed the start time, so lexical order is chronological
	sort.Strings(logs)
	for _, name := range logs[:len(logs)-keep] {
		if err := os.Remove(filepath.Join(logsDir, name)); err != nil {
			Debug("Error removing old log %s: %v", name, err)
		}
	}
}
