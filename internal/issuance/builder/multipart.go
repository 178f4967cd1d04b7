package builder

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
	"sync"
)

// Field is a plain form field.
type Field struct {
	Name  string
	Value string
}

// File is a file form field.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Multipart is a multipart/form-data body stored in a temporary file so it
// can be replayed on every attempt without holding a second copy in memory.
// Close removes the file; it is safe to call more than once.
type Multipart struct {
	path        string
	contentType string
	size        int64

	mu     sync.Mutex
	closed bool
}

// NewMultipart writes fields, then file, to a new temporary file in dir
// (os.TempDir() when empty).
func NewMultipart(dir string, fields []Field, file *File) (m *Multipart, err error) {
	f, err := os.CreateTemp(dir, "boleto-upload-*.multipart")
	if err != nil {
		return nil, fmt.Errorf("create payload file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	w := multipart.NewWriter(f)
	for _, fld := range fields {
		if err = w.WriteField(fld.Name, fld.Value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", fld.Name, err)
		}
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.Field), escapeQuotes(file.Filename)))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		var part io.Writer
		part, err = w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create file part: %w", err)
		}
		if _, err = part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("write file part: %w", err)
		}
	}

	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat payload file: %w", err)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("close payload file: %w", err)
	}

	return &Multipart{
		path:        f.Name(),
		contentType: w.FormDataContentType(),
		size:        info.Size(),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Open returns a fresh reader over the payload.
func (m *Multipart) Open() (io.ReadCloser, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, errors.New("payload already released")
	}
	return os.Open(m.path)
}

// ContentType returns multipart/form-data with the boundary.
func (m *Multipart) ContentType() string { return m.contentType }

// Size returns the payload length in bytes.
func (m *Multipart) Size() int64 { return m.size }

// Path returns the temporary file location.
func (m *Multipart) Path() string { return m.path }

// Close removes the temporary file.
func (m *Multipart) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove payload file: %w", err)
	}
	return nil
}
