package logger

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testPrintF  = "test format %s %s"
	testPrint   = "test print"
	testPrintLn = "test println"
	testSrc     = "test src"
	testLog1    = "test"
	testLog2    = "log"
)

func TestParse(t *testing.T) {
	for _, testdata := range []struct {
		name  string
		level Level
	}{
		{"debug", Debug},
		{"info", Info},
		{"warning", Warning},
		{"error", Error},
		{"fatal", Fatal},
		{"off", Off},
	} {
		t.Run(testdata.name, func(t *testing.T) {
			l, err := Parse(testdata.name)
			require.NoError(t, err)
			require.Equal(t, l, testdata.level)
		})
	}

	t.Run("invalid level", func(t *testing.T) {
		l, err := Parse("invalid level")
		require.Error(t, err)
		require.Equal(t, l, Debug)
	})
}

func TestPrefix(t *testing.T) {
	for lv := Level(0); lv < Off; lv++ {
		fmt.Println(Prefix(time.Now(), lv, testSrc).String())
	}
	// unknown level
	fmt.Println(Prefix(time.Now(), Level(153), testSrc).String())

	now := time.Date(2018, 11, 27, 0, 0, 0, 0, time.Local)
	require.Equal(t, "[2018-11-27 00:00:00] [warning] <test src> ", Prefix(now, Warning, testSrc).String())
}

func TestLogger(t *testing.T) {
	Test.Printf(Debug, testSrc, testPrintF, testLog1, testLog2)
	Test.Print(Debug, testSrc, testPrint, testLog1, testLog2)
	Test.Println(Debug, testSrc, testPrintLn, testLog1, testLog2)

	Discard.Printf(Debug, testSrc, testPrintF, testLog1, testLog2)
	Discard.Print(Debug, testSrc, testPrint, testLog1, testLog2)
	Discard.Println(Debug, testSrc, testPrintLn, testLog1, testLog2)
}

func TestLevelLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := NewLevelLogger(Info, buf)

	logger.Printf(Debug, testSrc, testPrintF, testLog1, testLog2)
	require.Zero(t, buf.Len())

	logger.Printf(Info, testSrc, testPrintF, testLog1, testLog2)
	logger.Print(Warning, testSrc, testPrint, testLog1, testLog2)
	logger.Println(Error, testSrc, testPrintLn, testLog1, testLog2)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "[info] <test src> test format test log")
	require.Contains(t, lines[1], "[warning] <test src> test print")
	require.Contains(t, lines[2], "[error] <test src> test println test log")

	t.Run("off", func(t *testing.T) {
		buf := new(bytes.Buffer)
		logger := NewLevelLogger(Off, buf)
		logger.Println(Fatal, testSrc, testPrintLn)
		require.Zero(t, buf.Len())
	})

	t.Run("parallel", func(t *testing.T) {
		buf := new(bytes.Buffer)
		logger := NewLevelLogger(Debug, buf)
		wg := sync.WaitGroup{}
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				logger.Print(Debug, testSrc, testPrint)
			}()
		}
		wg.Wait()
		require.Equal(t, 16, strings.Count(buf.String(), "\n"))
	})
}

func TestLevelLogger_Tag(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := &levelLogger{level: Debug, w: buf, tag: "[Test] "}
	logger.Println(Debug, testSrc, testPrintLn)
	require.True(t, strings.HasPrefix(buf.String(), "[Test] ["), buf.String())
	require.True(t, strings.HasSuffix(buf.String(), "<test src> test println\n"), buf.String())

	discard := Discard.(*levelLogger)
	require.Equal(t, Off, discard.level)
	require.Nil(t, discard.w)
}
