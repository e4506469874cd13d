package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	// X-Forwarded-For can hold a chain; the first entry is the client.
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = strings.TrimSpace(ip[:i])
	}
	return ip
}

// parseOptionalPeriod extracts optional year and month query filters.
// Absent or non-numeric values mean no filter; a month without a year is
// ignored downstream.
func parseOptionalPeriod(r *http.Request) (year, month *int) {
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = &y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = &m
		}
	}
	return year, month
}

// periodKey builds a cache key for an optional period filter.
func periodKey(year, month *int) string {
	switch {
	case year != nil && month != nil:
		return fmt.Sprintf("%d-%d", *year, *month)
	case year != nil:
		return fmt.Sprintf("%d", *year)
	default:
		return "all"
	}
}
