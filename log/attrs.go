package log

import "log/slog"

// Err returns an Attr holding err's message, or "no-error" for nil.
func Err(key string, err error) slog.Attr {
	if err == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, err.Error())
}

// Coordinate returns a group Attr with lat and lon members.
func Coordinate(key string, latitude, longitude float64) slog.Attr {
	return slog.Group(key, slog.Float64("lat", latitude), slog.Float64("lon", longitude))
}
