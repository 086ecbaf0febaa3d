package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/On-Jun9/DupeChecker/pkg/types"
)

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	logJSON bool
	logText bool
}

// New opens logFilePath for appending. An empty path logs to the console only.
func New(logFilePath string, logJSON, logText bool) (*Logger, error) {
	l := &Logger{
		console: os.Stdout,
		logJSON: logJSON,
		logText: logText,
	}
	if logFilePath == "" {
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l.file = file

	return l, nil
}

// SetConsole redirects summary and progress output.
func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

type LogEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	Level           string    `json:"level"`
	Message         string    `json:"message"`
	Path            string    `json:"path,omitempty"`
	Source          string    `json:"source,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// LogVideo records one loaded file. Files without a duration are logged as WARN
// with the reason every reader gave.
func (l *Logger) LogVideo(file types.VideoFile, meta types.MediaMetadata) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp:       time.Now(),
		Level:           "INFO",
		Message:         fmt.Sprintf("loaded: %s (%s, %s)", file.Name, file.SizeDisplay, displayOrUnknown(file.DurationDisplay)),
		Path:            file.FullPath,
		Source:          meta.Source,
		DurationSeconds: file.DurationSeconds,
	}

	if file.DurationSeconds == 0 {
		entry.Level = "WARN"
		entry.Error = meta.Error
	}

	l.writeEntry(entry)
}

func displayOrUnknown(s string) string {
	if s == "" {
		return "unknown duration"
	}
	return s
}

func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   msg,
	}
	l.writeEntry(entry)
}

func (l *Logger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "WARN",
		Message:   msg,
	}
	l.writeEntry(entry)
}

func (l *Logger) Error(msg string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "ERROR",
		Message:   msg,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.writeEntry(entry)
}

func (l *Logger) writeEntry(entry LogEntry) {
	if l.logJSON && l.file != nil {
		data, _ := json.Marshal(entry)
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}

	if l.logText && l.file != nil {
		line := fmt.Sprintf("[%s] %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Level,
			entry.Message,
		)
		if entry.Error != "" {
			line = fmt.Sprintf("[%s] %s %s - Error: %s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.Level,
				entry.Message,
				entry.Error,
			)
		}
		l.file.WriteString(line)
	}
}

func (l *Logger) Summary(summary types.LoadSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, "\n=== DupeChecker Summary ===")
	fmt.Fprintf(l.console, "Root:             %s\n", summary.Root)
	fmt.Fprintf(l.console, "Scanned files:    %d\n", summary.ScannedFiles)
	fmt.Fprintf(l.console, "Loaded:           %d\n", summary.LoadedFiles)
	fmt.Fprintf(l.console, "Skipped:          %d\n", summary.SkippedFiles)
	fmt.Fprintf(l.console, "Unknown duration: %d\n", summary.UnknownDuration)
	fmt.Fprintf(l.console, "Cache hits:       %d\n", summary.CacheHits)
	fmt.Fprintf(l.console, "Duration:         %s\n", summary.Duration.Round(time.Millisecond))
	if summary.TotalBytes > 0 {
		fmt.Fprintf(l.console, "Total size:       %.2f MB\n", float64(summary.TotalBytes)/1024/1024)
	}
	fmt.Fprintln(l.console, "===========================")
}

func (l *Logger) Progress(current, total int, filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "\r[%d/%d] %s", current, total, filename)
}
