package cmd

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Map9876/GitHub-action-torrent/internal/utils"
)

var (
	globalShutdownOnce sync.Once
	globalShutdownErr  error
	globalShutdownFn   = defaultGlobalShutdown

	shutdownMu      sync.Mutex
	shutdownClosers []io.Closer
)

// registerShutdown queues c to be closed by executeGlobalShutdown.
// Closers run in reverse registration order.
func registerShutdown(c io.Closer) {
	shutdownMu.Lock()
	shutdownClosers = append(shutdownClosers, c)
	shutdownMu.Unlock()
}

func defaultGlobalShutdown() error {
	shutdownMu.Lock()
	closers := shutdownClosers
	shutdownClosers = nil
	shutdownMu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func executeGlobalShutdown(reason string) error {
	globalShutdownOnce.Do(func() {
		utils.Debug("Executing graceful shutdown (%s)", reason)
		globalShutdownErr = globalShutdownFn()
		if globalShutdownErr != nil {
			globalShutdownErr = fmt.Errorf("graceful shutdown failed: %w", globalShutdownErr)
		}
		utils.SyncDebug()
	})
	return globalShutdownErr
}

func resetGlobalShutdownCoordinatorForTest(fn func() error) {
	globalShutdownOnce = sync.Once{}
	globalShutdownErr = nil
	shutdownMu.Lock()
	shutdownClosers = nil
	shutdownMu.Unlock()
	if fn != nil {
		globalShutdownFn = fn
		return
	}
	globalShutdownFn = defaultGlobalShutdown
}
