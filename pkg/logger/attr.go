package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil err yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func Owner(owner string) slog.Attr {
	return slog.String("owner", owner)
}

func Machine(name string) slog.Attr {
	return slog.String("machine", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func State(name string) slog.Attr {
	return slog.String("state", name)
}

// RecordID records the record identifier. An empty id yields an empty Attr.
func RecordID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("record_id", id)
}

// Backend names the storage backend a record store talks to.
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}
