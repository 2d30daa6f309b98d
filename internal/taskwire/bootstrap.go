package taskwire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const (
	bootstrapBegin = "_setup("
	bootstrapEnd   = ")}</script>"
)

var ErrBadBootstrap = errors.New("taskwire: bootstrap document not found")

// ParseBootstrap extracts the bootstrap document from a login page.
func ParseBootstrap(page string) (*Bootstrap, error) {
	begin := strings.Index(page, bootstrapBegin)
	end := strings.LastIndex(page, bootstrapEnd)
	if begin == -1 || end == -1 || begin+len(bootstrapBegin) >= end {
		return nil, ErrBadBootstrap
	}

	var b Bootstrap
	if err := json.Unmarshal([]byte(page[begin+len(bootstrapBegin):end]), &b); err != nil {
		return nil, fmt.Errorf("decode bootstrap: %w", err)
	}
	return &b, nil
}

// RenderBootstrap wraps b into a page ParseBootstrap understands.
func RenderBootstrap(b *Bootstrap) ([]byte, error) {
	js, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bootstrap: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head><title>Tasks</title></head><body>")
	sb.WriteString("<script type=\"text/javascript\">(function(){")
	sb.WriteString(bootstrapBegin)
	sb.Write(js)
	sb.WriteString(bootstrapEnd)
	sb.WriteString("</body></html>")
	return []byte(sb.String()), nil
}
