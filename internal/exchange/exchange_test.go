package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"breakout_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		APIKey:     "key",
		APISecret:  "secret",
		Passphrase: "pass",
		RPS:        1000,
		Burst:      100,
	})
}

func TestFetchBarsReversesToAscending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/candles", r.URL.Path)
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("instId"))
		assert.Equal(t, "1H", r.URL.Query().Get("bar"))
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"code":"0","msg":"","data":[
			["1700000120000","3","4","2","3.5","30","0","0","0"],
			["1700000060000","2","3","1","2.5","20","0","0","1"],
			["1700000000000","1","2","0.5","1.5","10","0","0","1"]
		]}`)
	})

	bars, err := c.FetchBars(context.Background(), "btc/usdt", "1h", 200)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), bars[0].Time)
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, 10.0, bars[0].Volume)
	assert.Equal(t, 3.5, bars[2].Close)
	assert.True(t, bars[1].Time.Before(bars[2].Time))
}

func TestFetchBarsCapsLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "300", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"code":"0","data":[]}`)
	})
	bars, err := c.FetchBars(context.Background(), "ETH/USDT", "1m", 1000)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchBarsVenueError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"50011","msg":"Too Many Requests","data":[]}`)
	})
	_, err := c.FetchBars(context.Background(), "BTC/USDT", "1m", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "50011", apiErr.Code)
	assert.True(t, IsTemporary(err))
}

func TestFetchBarsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := c.FetchBars(context.Background(), "BTC/USDT", "1m", 10)
	require.Error(t, err)
	assert.True(t, IsTemporary(err))
}

func TestFetchBarsBadTimeframe(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.FetchBars(context.Background(), "BTC/USDT", "7m", 10)
	require.Error(t, err)
	assert.False(t, IsTemporary(err))
}

func TestPlaceMarketOrderSignsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v5/trade/order", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		ts := r.Header.Get("OK-ACCESS-TIMESTAMP")
		mac := hmac.New(sha256.New, []byte("secret"))
		mac.Write([]byte(ts + "POST" + "/api/v5/trade/order" + string(body)))
		assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), r.Header.Get("OK-ACCESS-SIGN"))
		assert.Equal(t, "key", r.Header.Get("OK-ACCESS-KEY"))
		assert.Equal(t, "pass", r.Header.Get("OK-ACCESS-PASSPHRASE"))

		var got map[string]string
		assert.NoError(t, sonic.Unmarshal(body, &got))
		assert.Equal(t, "BTC-USDT", got["instId"])
		assert.Equal(t, "buy", got["side"])
		assert.Equal(t, "market", got["ordType"])
		assert.Equal(t, "cash", got["tdMode"])
		assert.Equal(t, "base_ccy", got["tgtCcy"])
		assert.Equal(t, "0.02083333", got["sz"])

		_, _ = io.WriteString(w, `{"code":"0","msg":"","data":[{"ordId":"123","sCode":"0","sMsg":""}]}`)
	})
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	id, err := c.PlaceMarketOrder(context.Background(), "BTC/USDT", models.OrderBuy, 0.0208333333)
	require.NoError(t, err)
	assert.Equal(t, "123", id)
}

func TestPlaceMarketOrderRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"1","msg":"","data":[{"ordId":"","sCode":"51008","sMsg":"insufficient balance"}]}`)
	})
	_, err := c.PlaceMarketOrder(context.Background(), "BTC/USDT", models.OrderSell, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "51008")
	assert.False(t, IsTemporary(err))
}

func TestPlaceMarketOrderValidation(t *testing.T) {
	noCreds := NewClient(Config{})
	_, err := noCreds.PlaceMarketOrder(context.Background(), "BTC/USDT", models.OrderBuy, 1)
	assert.ErrorIs(t, err, ErrNoCredentials)

	c := NewClient(Config{APIKey: "k", APISecret: "s", Passphrase: "p"})
	_, err = c.PlaceMarketOrder(context.Background(), "BTC/USDT", models.OrderBuy, 0.000000001)
	assert.Error(t, err)
	_, err = c.PlaceMarketOrder(context.Background(), "BTC/USDT", "hold", 1)
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "BTC-USDT", InstID("BTC/USDT"))
	assert.Equal(t, "ETH-USDT", InstID(" eth/usdt:usdt "))

	for in, want := range map[string]string{"1m": "1m", "1h": "1H", "4H": "4H", "1d": "1D", "15m": "15m"} {
		got, err := Bar(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Equal(t, time.Hour, timeframeToDuration("1H"))

	assert.Equal(t, "0.75", FormatSize(0.75))
	assert.Equal(t, "0.12345678", FormatSize(0.123456789))
}

func TestIsTemporary(t *testing.T) {
	assert.False(t, IsTemporary(nil))
	assert.True(t, IsTemporary(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	assert.True(t, IsTemporary(&APIError{HTTPStatus: 429}))
	assert.False(t, IsTemporary(&APIError{HTTPStatus: 400}))
	assert.False(t, IsTemporary(errors.New("boom")))
}
