package exchange

import (
	"context"
	"net/http"

	"breakout_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const sizePrecision = 8

type orderResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	} `json:"data"`
}

// FormatSize: размер в базовой валюте, обрезанный вниз до 8 знаков.
func FormatSize(qty float64) string {
	return decimal.NewFromFloat(qty).Truncate(sizePrecision).String()
}

// PlaceMarketOrder ставит spot market ордер, размер в базовой валюте. Возвращает ordId.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty float64) (string, error) {
	const op = "okx order"

	if !c.HasCreds() {
		return "", ErrNoCredentials
	}
	if side != models.OrderBuy && side != models.OrderSell {
		return "", errors.Errorf("%s: unsupported side %q", op, side)
	}
	sz := FormatSize(qty)
	if d, _ := decimal.NewFromString(sz); !d.IsPositive() {
		return "", errors.Errorf("%s: size <= 0 (%v)", op, qty)
	}

	body := map[string]string{
		"instId":  InstID(symbol),
		"tdMode":  "cash",
		"side":    string(side),
		"ordType": "market",
		"sz":      sz,
		"tgtCcy":  "base_ccy",
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return "", errors.Wrapf(err, "%s: marshal", op)
	}

	const requestPath = "/api/v5/trade/order"
	req, err := c.generateRequest(ctx, http.MethodPost, requestPath, string(payload))
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	b, err := c.do(req, op)
	if err != nil {
		return "", err
	}

	var r orderResponse
	if err := sonic.Unmarshal(b, &r); err != nil {
		return "", errors.Wrapf(err, "%s: decode", op)
	}
	// детальный статус
	if len(r.Data) > 0 && r.Data[0].SCode != "0" {
		return "", &APIError{Op: op, Code: r.Data[0].SCode, Msg: r.Data[0].SMsg}
	}
	// общий код
	if r.Code != "0" {
		return "", &APIError{Op: op, Code: r.Code, Msg: r.Msg}
	}
	if len(r.Data) == 0 || r.Data[0].OrdID == "" {
		return "", &APIError{Op: op, Code: r.Code, Msg: "empty ordId"}
	}
	return r.Data[0].OrdID, nil
}
