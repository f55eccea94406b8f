package ingest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"findash/internal/core"
)

var errNotDataURL = errors.New("not a data URL")

// DecodeDataURL decodes the "data:<mime>;base64,<payload>" string an upload
// widget submits. Non-base64 data URLs are percent-decoded.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") {
		return nil, &core.ParseError{Err: errNotDataURL}
	}
	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, &core.ParseError{Err: fmt.Errorf("decode base64 payload: %w", err)}
		}
		return decoded, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, &core.ParseError{Err: fmt.Errorf("decode data URL payload: %w", err)}
	}
	return []byte(decoded), nil
}
