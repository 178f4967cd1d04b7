package mapper

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
)

// DecodeArtifact wraps a binary body. The content type and filename come
// from the response headers, falling back to wantType and fallbackName. A
// JSON body where a binary one was expected is a decode failure.
func DecodeArtifact(header http.Header, body []byte, wantType, fallbackName string) (*domain.Artifact, error) {
	ct := wantType
	if raw := header.Get("Content-Type"); raw != "" {
		if mt, _, err := mime.ParseMediaType(raw); err == nil {
			ct = mt
		}
	}
	if ct == "application/json" && wantType != "application/json" {
		return nil, fmt.Errorf("%w: expected %s, got JSON: %s", ErrDecode, wantType, truncate(body, 200))
	}

	name := fallbackName
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}

	return &domain.Artifact{ContentType: ct, Filename: name, Data: body}, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
