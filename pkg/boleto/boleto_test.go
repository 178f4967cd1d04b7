package boleto_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxwbh/boleto-cnab-api/pkg/boleto"
)

func TestPublicAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Banco não suportado"}`))
	}))
	defer server.Close()

	cfg := boleto.DefaultConfig(server.URL)
	cfg.Logging.Format = "none"
	client, err := boleto.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Data(context.Background(), boleto.BankSicoob, boleto.Request{
		Agencia:  "4327",
		Valor:    10,
		Convenio: boleto.String("229385"),
	})
	require.Error(t, err)
	assert.Equal(t, boleto.KindValidation, boleto.KindOf(err))

	var be *boleto.Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "Banco não suportado", be.Message)
	assert.Equal(t, http.StatusBadRequest, be.StatusCode)
}

func TestPublicAPI_Unreachable(t *testing.T) {
	cfg := boleto.DefaultConfig("http://127.0.0.1:1")
	cfg.Logging.Format = "none"
	cfg.Retry.MaxAttempts = 1
	cfg.Service.Timeout = 2 * time.Second

	client, err := boleto.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Health(context.Background())
	assert.Equal(t, boleto.KindConnectivity, boleto.KindOf(err))
	assert.Equal(t, boleto.Kind(0), boleto.KindOf(errors.New("plain")))
}

func TestPublicAPI_ValidateRejectedReturnsResultAndError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"valid":false,"validation_errors":{"agencia":["não pode estar em branco"]},"hint":"Corrija os erros"}`))
	}))
	defer server.Close()

	cfg := boleto.DefaultConfig(server.URL)
	cfg.Logging.Format = "none"
	client, err := boleto.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	res, err := client.Validate(context.Background(), boleto.BankItau, boleto.Request{Valor: 10})
	require.Error(t, err)
	assert.Equal(t, boleto.KindValidation, boleto.KindOf(err))
	require.NotNil(t, res)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "agencia")
}
