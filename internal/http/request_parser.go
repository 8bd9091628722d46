// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"financeiro/internal/backup"
	"financeiro/internal/core"
)

const (
	maxJSONBody   = 1 << 20  // 1 MiB
	maxImportBody = 10 << 20 // 10 MiB
)

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so typos do not silently drop data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

// readImport reads an import payload and works out its format from the
// "format" query parameter, falling back to the Content-Type.
func readImport(w http.ResponseWriter, r *http.Request) ([]byte, backup.Format, error) {
	name := r.URL.Query().Get("format")
	if name == "" && strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		name = string(backup.FormatYAML)
	}
	f, err := backup.ParseFormat(name)
	if err != nil {
		return nil, "", err
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return raw, f, nil
}

// parseMonthQuery reads ?month=YYYY-MM (or YYYY-MM-01). Empty means the
// caller's default.
func parseMonthQuery(r *http.Request) (core.MonthKey, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return "", nil
	}
	return core.ParseMonthKey(v)
}

// pathIndex reads a non-negative integer path variable.
func pathIndex(r *http.Request, name string) (int, error) {
	v := mux.Vars(r)[name]
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, v)
	}
	return n, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
