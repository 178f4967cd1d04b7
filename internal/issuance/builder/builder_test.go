package builder

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/mapper"
)

type part struct {
	filename    string
	contentType string
	data        []byte
}

func readParts(t *testing.T, m *Multipart) map[string]part {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(m.ContentType())
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	rc, err := m.Open()
	require.NoError(t, err)
	defer rc.Close()

	parts := make(map[string]part)
	r := multipart.NewReader(rc, params["boundary"])
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts[p.FormName()] = part{
			filename:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			data:        data,
		}
	}
	return parts
}

func TestQuery(t *testing.T) {
	q, err := Query("Banco-Brasil", mapper.Payload{"valor": 0.0, "carteira": ""})
	require.NoError(t, err)
	assert.Equal(t, "banco_brasil", q.Get("bank"))
	assert.JSONEq(t, `{"valor":0,"carteira":""}`, q.Get("data"))
	assert.Empty(t, q.Get("type"))

	_, err = Query("nubank", mapper.Payload{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedBank)
}

func TestArtifactQuery(t *testing.T) {
	q, err := ArtifactQuery(domain.BankSicoob, "PNG", mapper.Payload{"valor": 1.0})
	require.NoError(t, err)
	assert.Equal(t, "png", q.Get("type"))
	assert.Equal(t, "sicoob", q.Get("bank"))

	q, err = ArtifactQuery(domain.BankSicoob, "", mapper.Payload{})
	require.NoError(t, err)
	assert.Equal(t, "pdf", q.Get("type"))

	_, err = ArtifactQuery(domain.BankSicoob, "gif", mapper.Payload{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedOutput)
}

func TestBatchPayload(t *testing.T) {
	dir := t.TempDir()
	entries := []mapper.Payload{
		{"bank": "itau", "nosso_numero": "1"},
		{"bank": "sicoob", "nosso_numero": "2"},
	}

	m, err := BatchPayload(dir, entries, domain.OutputPDF)
	require.NoError(t, err)

	_, err = os.Stat(m.Path())
	require.NoError(t, err)
	info, _ := os.Stat(m.Path())
	assert.Equal(t, info.Size(), m.Size())

	parts := readParts(t, m)
	assert.Equal(t, "pdf", string(parts["type"].data))
	assert.Equal(t, "boletos.json", parts["data"].filename)
	assert.Equal(t, "application/json", parts["data"].contentType)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(parts["data"].data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "itau", got[0]["bank"])
	assert.Equal(t, "sicoob", got[1]["bank"])

	// replayable
	again := readParts(t, m)
	assert.Equal(t, parts["data"].data, again["data"].data)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	_, err = os.Stat(m.Path())
	assert.True(t, os.IsNotExist(err))
	_, err = m.Open()
	assert.Error(t, err)

	entriesLeft, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entriesLeft)
}

func TestBatchPayload_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := BatchPayload(dir, nil, domain.OutputPDF)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = BatchPayload(dir, []mapper.Payload{{"a": 1}}, "bmp")
	assert.ErrorIs(t, err, domain.ErrUnsupportedOutput)

	_, err = BatchPayload(dir, []mapper.Payload{{"bad": make(chan int)}}, domain.OutputPDF)
	assert.Error(t, err)

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestNewMultipart_BadDir(t *testing.T) {
	_, err := NewMultipart("/nonexistent/dir/for/boleto", nil, nil)
	assert.Error(t, err)
}

func TestRemessaPayload(t *testing.T) {
	m, err := RemessaPayload(t.TempDir(), "Sicoob", "400", mapper.Payload{"empresa_mae": "ACME"})
	require.NoError(t, err)
	defer m.Close()

	parts := readParts(t, m)
	assert.Equal(t, "sicoob", string(parts["bank"].data))
	assert.Equal(t, "cnab400", string(parts["type"].data))
	assert.JSONEq(t, `{"empresa_mae":"ACME"}`, string(parts["data"].data))

	_, err = RemessaPayload(t.TempDir(), "sicoob", "cnab150", mapper.Payload{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCNAB)
}

func TestRetornoPayload(t *testing.T) {
	content := []byte("02RETORNO01COBRANCA\n")
	m, err := RetornoPayload(t.TempDir(), domain.BankItau, domain.CNAB240, "", content)
	require.NoError(t, err)
	defer m.Close()

	parts := readParts(t, m)
	assert.Equal(t, "itau", string(parts["bank"].data))
	assert.Equal(t, "cnab240", string(parts["type"].data))
	assert.Equal(t, "retorno.ret", parts["data"].filename)
	assert.Equal(t, content, parts["data"].data)

	_, err = RetornoPayload(t.TempDir(), "nubank", domain.CNAB240, "x", content)
	assert.ErrorIs(t, err, domain.ErrUnsupportedBank)
}
