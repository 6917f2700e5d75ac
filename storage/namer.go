package storage

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Namer prefixes upload names with a millisecond token that never repeats
// within the process, even for uploads landing in the same millisecond.
type Namer struct {
	last atomic.Int64
	now  func() time.Time
}

func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// Token returns the current unix time in milliseconds, bumped past the
// previous token when the clock has not moved on.
func (n *Namer) Token() int64 {
	for {
		prev := n.last.Load()
		next := n.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if n.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// Name builds "<token>-<original>" with the original reduced to a safe base name.
func (n *Namer) Name(originalName string) string {
	return strconv.FormatInt(n.Token(), 10) + "-" + SanitizeFilename(originalName)
}

func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "image"
	}
	return name
}
