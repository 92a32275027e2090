package models

// Side: сторона позиции. Пока только long.
type Side string

const (
	SideLong Side = "long"
)

// OrderSide: сторона рыночного ордера на бирже.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)
