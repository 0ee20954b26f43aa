package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	debugMu   sync.Mutex
	debugPath = ""
	debugFile *os.File
	debugOnce sync.Once
)

// SetDebugPath enables the debug log at path. Must be called before the
// first Debug call; an empty path keeps logging disabled.
func SetDebugPath(path string) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugPath = path
}

// Debug writes a message to the debug log file
func Debug(format string, args ...any) {
	debugMu.Lock()
	defer debugMu.Unlock()

	if debugPath == "" {
		return
	}

	// add timestamp to each debug message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	debugOnce.Do(func() {
		_ = os.MkdirAll(filepath.Dir(debugPath), 0755)
		debugFile, _ = os.OpenFile(debugPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	})
	if debugFile != nil {
		fmt.Fprintf(debugFile, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
		debugFile.Sync() // Flush immediately
	}
}
