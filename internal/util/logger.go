package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const LOG_BUFFER_SIZE = 1000

var (
	ErrLogNotInitialized      = errors.New("log object is not initialized yet")
	LOG_FOLDER_NAME_WITH_PATH = ".." + string(os.PathSeparator) + "log"
	globalLogLevel            = LOG_LEVEL_INFO
)

const (
	LOG_LEVEL_ERROR = iota + 1
	LOG_LEVEL_WARN
	LOG_LEVEL_INFO
	LOG_LEVEL_DEBUG
)

// PerfLogger hands log lines to a single writer goroutine over a buffered
// channel so instrumented call sites never block on log I/O. When the
// buffer is full the line is dropped and counted.
type PerfLogger struct {
	logBuffer         chan LeveledLogger
	handle            *os.File
	wg                *sync.WaitGroup
	mu                sync.RWMutex
	loggerInitialized bool
	level             int
	zapLogger         *zap.Logger
	dropped           atomic.Uint64
}

type LeveledLogger struct {
	level  int
	logMsg string
}

// Init opens logFileName inside the log folder and starts the writer.
func (m *PerfLogger) Init(logFileName string, rewrite bool) error {
	flags := os.O_RDWR | os.O_CREATE | os.O_APPEND
	if rewrite {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}

	fileWithRelPath := LOG_FOLDER_NAME_WITH_PATH + string(os.PathSeparator) + logFileName
	handle, err := os.OpenFile(fileWithRelPath, flags, 0666)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", fileWithRelPath, err)
	}

	m.handle = handle
	m.start(handle)
	return nil
}

// InitWithWriter starts the writer on w, e.g. os.Stderr or a test buffer.
func (m *PerfLogger) InitWithWriter(w io.Writer) {
	m.handle = nil
	m.start(w)
}

func (m *PerfLogger) start(w io.Writer) {
	m.wg = new(sync.WaitGroup)
	m.logBuffer = make(chan LeveledLogger, LOG_BUFFER_SIZE)
	if m.level == 0 {
		m.level = globalLogLevel
	}

	m.zapLoggerInit(zapcore.AddSync(w))

	m.wg.Add(1)
	go m.logWritter()

	m.mu.Lock()
	m.loggerInitialized = true
	m.mu.Unlock()
}

func (m *PerfLogger) zapLoggerInit(writer zapcore.WriteSyncer) {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(config)

	m.zapLogger = zap.New(zapcore.NewCore(encoder, writer, ZapLevel(m.level)))
}

// SetLevel changes the level used by the next Init. It has no effect on a
// running logger.
func (m *PerfLogger) SetLevel(level int) {
	m.level = level
}

// ZapLevel maps a LOG_LEVEL_* value onto zap. Unknown values mean info.
func ZapLevel(level int) zapcore.Level {
	switch level {
	case LOG_LEVEL_ERROR:
		return zapcore.ErrorLevel
	case LOG_LEVEL_WARN:
		return zapcore.WarnLevel
	case LOG_LEVEL_DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLogLevel accepts error, warn, info or debug in any case.
func ParseLogLevel(level string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return LOG_LEVEL_ERROR, nil
	case "warn", "warning":
		return LOG_LEVEL_WARN, nil
	case "info", "":
		return LOG_LEVEL_INFO, nil
	case "debug":
		return LOG_LEVEL_DEBUG, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

func (m *PerfLogger) logWritter() {
	for logdata := range m.logBuffer {
		switch logdata.level {
		case LOG_LEVEL_ERROR:
			m.zapLogger.Error(logdata.logMsg)
		case LOG_LEVEL_WARN:
			m.zapLogger.Warn(logdata.logMsg)
		case LOG_LEVEL_INFO:
			m.zapLogger.Info(logdata.logMsg)
		case LOG_LEVEL_DEBUG:
			m.zapLogger.Debug(logdata.logMsg)
		}
	}
	_ = m.zapLogger.Sync()
	m.wg.Done()
}

// LogEvent queues a message. A leading LOG_LEVEL_* int selects the level,
// otherwise the message is logged at info.
func (m *PerfLogger) LogEvent(v ...interface{}) error {
	if len(v) == 0 {
		return nil
	}

	level := LOG_LEVEL_INFO
	msg := fmt.Sprint(v[0])

	if len(v) > 1 {
		if l, ok := v[0].(int); ok && l >= LOG_LEVEL_ERROR && l <= LOG_LEVEL_DEBUG {
			level = l
			msg = strings.TrimSpace(fmt.Sprintln(v[1:]...))
		} else {
			msg = strings.TrimSpace(fmt.Sprintln(v...))
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loggerInitialized {
		return ErrLogNotInitialized
	}
	if level > m.level {
		return nil
	}
	select {
	case m.logBuffer <- LeveledLogger{level, msg}:
	default:
		m.dropped.Add(1)
	}
	return nil
}

// Dropped reports how many lines were discarded because the buffer was full.
func (m *PerfLogger) Dropped() uint64 {
	return m.dropped.Load()
}

// DeInit drains queued messages and closes the log file, if any.
func (m *PerfLogger) DeInit() {
	m.mu.Lock()
	if !m.loggerInitialized {
		m.mu.Unlock()
		return
	}
	m.loggerInitialized = false
	close(m.logBuffer)
	m.mu.Unlock()

	m.wg.Wait()

	if m.handle != nil {
		m.handle.Close()
	}
}

func SetCommonLoggerAttributes(GlobalLogLevel int) {
	globalLogLevel = GlobalLogLevel
}

func SetLoggerPath(logPath string) {
	LOG_FOLDER_NAME_WITH_PATH = logPath
}

func CheckAndCreateLogFolder(FolderNameWithPath string) error {
	if _, err := os.Stat(FolderNameWithPath); os.IsNotExist(err) {
		if err := os.MkdirAll(FolderNameWithPath, 0755); err != nil {
			return fmt.Errorf("creating folder %s: %w", FolderNameWithPath, err)
		}
	}
	return nil
}
