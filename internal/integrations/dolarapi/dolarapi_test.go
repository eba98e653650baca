package dolarapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dan9191/barakah/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(&config.Config{DolarAPIURL: srv.URL}, log)
}

func TestGetOfficialRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/dolares/oficial", r.URL.Path)
		w.Write([]byte(`{"moneda":"USD","casa":"oficial","nombre":"Oficial","compra":1045.5,"venta":1085.5,"fechaActualizacion":"2025-03-10T15:00:00.000Z"}`))
	})

	rate, err := c.GetOfficialRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1085.5, rate)
}

func TestGetOfficialRateErrors(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.GetOfficialRate(context.Background())
		assert.ErrorContains(t, err, "502")
	})
	t.Run("missing venta", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"compra":1}`))
		})
		_, err := c.GetOfficialRate(context.Background())
		assert.Error(t, err)
	})
	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := c.GetOfficialRate(context.Background())
		assert.ErrorContains(t, err, "failed to parse quote")
	})
}
