package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"breakout_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const maxCandlesLimit = 300

type candlesResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// FetchBars тянет count последних свечей. Строка OKX:
// [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm], newest-first.
// Результат упорядочен по времени по возрастанию.
func (c *Client) FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]models.Bar, error) {
	const op = "okx candles"

	if count <= 0 {
		count = 100
	}
	if count > maxCandlesLimit {
		count = maxCandlesLimit
	}
	bar, err := Bar(timeframe)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		c.baseURL, url.QueryEscape(InstID(symbol)), url.QueryEscape(bar), count,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	b, err := c.do(req, op)
	if err != nil {
		return nil, err
	}

	var r candlesResponse
	if err := sonic.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrapf(err, "%s: decode", op)
	}
	if r.Code != "0" {
		return nil, &APIError{Op: op, Code: r.Code, Msg: r.Msg}
	}

	return parseCandles(r.Data)
}

func parseCandles(rows [][]string) ([]models.Bar, error) {
	out := make([]models.Bar, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}

		tsMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "candle ts %q", row[0])
		}
		var vals [5]float64
		for j := range vals {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "candle field %d", j+1)
			}
			vals[j] = v
		}
		if vals[3] <= 0 {
			continue
		}

		t := time.UnixMilli(tsMs).UTC()
		if n := len(out); n > 0 && !t.After(out[n-1].Time) {
			continue
		}
		out = append(out, models.Bar{
			Time:   t,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return out, nil
}
