// Package logging builds the zerolog logger a run passes to its components.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout used in console output.
const TimeFormat = "2006-01-02T15:04:05"

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// New returns a logger writing lines such as
//
//	[2024-03-06T01:14:14 -- INFO] Deleting deployment deployment=v1 objects=2
//
// to w.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:     w,
		NoColor: true,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
		FormatTimestamp: func(i any) string {
			s := fmt.Sprint(i)
			if t, err := time.Parse(zerolog.TimeFieldFormat, s); err == nil {
				s = t.Format(TimeFormat)
			}
			return "[" + s
		},
		FormatLevel: func(i any) string {
			return "-- " + strings.ToUpper(fmt.Sprint(i)) + "]"
		},
	}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}
