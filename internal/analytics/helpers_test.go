package analytics

import (
	"io"
	"strings"
	"time"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func at(s string) *time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return &t
}
