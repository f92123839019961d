package http

// This file decodes request bodies. Record forms arrive either as JSON
// or as url-encoded form posts.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finledger/internal/core"
	"finledger/internal/services"
)

// maxBodyBytes bounds every request body, imports included.
const maxBodyBytes = 5 << 20

var errEmptyBody = errors.New("request body is empty")

// readBody reads at most maxBodyBytes from r.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func isJSON(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if mt == "application/json" {
			return true
		}
		if mt == "application/x-www-form-urlencoded" {
			return false
		}
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{")
}

// ParseRecordForm decodes a record form from a JSON or url-encoded body.
func ParseRecordForm(contentType string, body []byte) (services.Form, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return services.Form{}, errEmptyBody
	}

	if isJSON(contentType, body) {
		var raw map[string]any
		dec := json.NewDecoder(strings.NewReader(string(body)))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return services.Form{}, fmt.Errorf("invalid JSON body: %w", err)
		}
		get := func(key string) string { return sanitizeInput(stringValue(raw[key])) }
		return formFrom(get), nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return services.Form{}, fmt.Errorf("invalid form body: %w", err)
	}
	get := func(key string) string { return sanitizeInput(values.Get(key)) }
	return formFrom(get), nil
}

func formFrom(get func(string) string) services.Form {
	return services.Form{
		Type:          core.TxnType(strings.ToLower(get("type"))),
		Amount:        get("amount"),
		Date:          get("date"),
		Description:   get("description"),
		Currency:      get("currency"),
		Category:      get("category"),
		OtherCategory: get("otherCategory"),
		EditID:        get("editId"),
	}
}

// stringValue renders JSON scalars the way a form field would carry them.
// Numbers keep their literal text so "12.50" and 12.50 parse alike.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// ParseSettingsPatch decodes a partial settings update. Unknown fields
// are rejected so typos do not silently succeed.
func ParseSettingsPatch(body []byte) (core.SettingsPatch, error) {
	var patch core.SettingsPatch
	if len(strings.TrimSpace(string(body))) == 0 {
		return patch, errEmptyBody
	}
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return patch, fmt.Errorf("invalid settings body: %w", err)
	}
	return patch, nil
}
