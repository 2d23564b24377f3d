package logger

import (
	"log/slog"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// DefaultMaxPayload is the default logged length of a payload attribute.
const DefaultMaxPayload = 256

// PayloadKeys lists attribute keys carrying client-supplied or executor
// output that may be arbitrarily large.
var PayloadKeys = map[string]bool{
	"line":     true,
	"result":   true,
	"response": true,
	"payload":  true,
}

// truncatePayload shortens string payload attributes longer than max.
func truncatePayload(a slog.Attr, max int) slog.Attr {
	if a.Value.Kind() == slog.KindString && PayloadKeys[a.Key] {
		if s := a.Value.String(); len(s) > max {
			return slog.String(a.Key, Truncate(s, max))
		}
		return a
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = truncatePayload(attr, max)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// Truncate cuts s to at most max bytes on a rune boundary and appends a
// marker with the original size. Strings within the limit are returned as-is.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(" + humanize.IBytes(uint64(len(s))) + " total)"
}
