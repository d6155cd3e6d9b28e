package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the log level
type Level = uint8

// about level
const (
	Debug Level = iota
	Info
	Warning
	Error
	Fatal
	Off
)

var levelNames = [...]string{
	Debug:   "debug",
	Info:    "info",
	Warning: "warning",
	Error:   "error",
	Fatal:   "fatal",
	Off:     "off",
}

// TimeLayout is used to provide a parameter to time.Time.Format().
const TimeLayout = "2006-01-02 15:04:05"

// Logger is a common logger.
type Logger interface {
	Printf(lv Level, src, format string, log ...interface{})
	Print(lv Level, src string, log ...interface{})
	Println(lv Level, src string, log ...interface{})
}

// Parse is used to parse logger level from string.
func Parse(level string) (Level, error) {
	for lv, name := range levelNames {
		if name == level {
			return Level(lv), nil
		}
	}
	return Debug, fmt.Errorf("unknown logger level: %s", level)
}

// Prefix is used to print time, level and source to a buffer.
//
// [2018-11-27 00:00:00] [info] <vmthook> install hook at 0x7FF6A0001000
func Prefix(time time.Time, level Level, src string) *bytes.Buffer {
	lv := "unknown"
	if level < Off {
		lv = levelNames[level]
	}
	buf := new(bytes.Buffer)
	_, _ = fmt.Fprintf(buf, "[%s] [%s] <%s> ", time.Local().Format(TimeLayout), lv, src)
	return buf
}

var (
	// Test is used to go test, it prints everything to stdout.
	//
	// [Test] [2020-01-21 12:36:41] [debug] <test src> test-format test log
	Test Logger = &levelLogger{level: Debug, w: os.Stdout, tag: "[Test] "}

	// Discard is used to discard log.
	Discard Logger = &levelLogger{level: Off}
)

// levelLogger drops logs below level and writes the rest to w,
// one line per log.
type levelLogger struct {
	level Level
	w     io.Writer
	tag   string
	mu    sync.Mutex
}

// NewLevelLogger is used to create a logger that only writes logs
// whose level is at least lv.
func NewLevelLogger(lv Level, w io.Writer) Logger {
	return &levelLogger{level: lv, w: w}
}

func (l *levelLogger) write(lv Level, src string, fn func(io.Writer)) {
	if lv < l.level || l.level == Off {
		return
	}
	output := bytes.NewBufferString(l.tag)
	_, _ = Prefix(time.Now(), lv, src).WriteTo(output)
	fn(output)
	if b := output.Bytes(); b[len(b)-1] != '\n' {
		output.WriteByte('\n')
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = output.WriteTo(l.w)
}

func (l *levelLogger) Printf(lv Level, src, format string, log ...interface{}) {
	l.write(lv, src, func(w io.Writer) { _, _ = fmt.Fprintf(w, format, log...) })
}

func (l *levelLogger) Print(lv Level, src string, log ...interface{}) {
	l.write(lv, src, func(w io.Writer) { _, _ = fmt.Fprint(w, log...) })
}

func (l *levelLogger) Println(lv Level, src string, log ...interface{}) {
	l.write(lv, src, func(w io.Writer) { _, _ = fmt.Fprintln(w, log...) })
}
