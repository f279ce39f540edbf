package logger

import (
	"fmt"
	"os"
	"sync"
)

// LogFile writes to FilePath rotating it by MaxSize.
// Rotated files get numeric suffixes, ".1" is the most recent,
// files over Rotate count are removed.
type LogFile struct {
	mu   sync.Mutex
	file *os.File
	size int64

	FilePath string
	MaxSize  int64
	Rotate   int
}

// Close implements io.Closer interface
func (f *LogFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Write implements io.Writer interface
func (f *LogFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		if err := f.open(); err != nil {
			return 0, err
		}
	}
	if f.MaxSize > 0 && f.size+int64(len(p)) > f.MaxSize && f.size > 0 {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

func (f *LogFile) open() error {
	file, err := os.OpenFile(f.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	f.file, f.size = file, 0
	if info, err := file.Stat(); err == nil {
		f.size = info.Size()
	}
	return nil
}

func (f *LogFile) rotate() error {
	_ = f.file.Close()
	f.file = nil
	if f.Rotate <= 0 {
		_ = os.Remove(f.FilePath)
		return f.open()
	}
	_ = os.Remove(fmt.Sprintf("%s.%d", f.FilePath, f.Rotate))
	for i := f.Rotate - 1; i > 0; i-- {
		_ = os.Rename(fmt.Sprintf("%s.%d", f.FilePath, i), fmt.Sprintf("%s.%d", f.FilePath, i+1))
	}
	_ = os.Rename(f.FilePath, f.FilePath+".1")
	return f.open()
}
