package runner

import "breakout_bot/internal/models"

// Publisher получает события воркеров (websocket-хаб). Publish не должен блокировать.
type Publisher interface {
	Publish(ev models.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.Event) {}
