package notify

import (
	"sync"
	"sync/atomic"

	"breakout_bot/internal/metrics"
	"breakout_bot/pkg/logger"
)

// Async: неблокирующая обёртка, очередь фиксированного размера,
// при переполнении сообщение выбрасывается.
type Async struct {
	next  Notifier
	queue chan string
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once

	dropped atomic.Int64
}

func NewAsync(next Notifier, size int) *Async {
	if size <= 0 {
		size = 64
	}
	a := &Async{
		next:  next,
		queue: make(chan string, size),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) Notify(text string) {
	select {
	case <-a.stop:
		return
	default:
	}
	select {
	case a.queue <- text:
	default:
		a.dropped.Add(1)
		metrics.NotificationsDropped.Inc()
	}
}

// Dropped: сколько сообщений выброшено из-за переполнения.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

func (a *Async) loop() {
	defer close(a.done)
	for {
		select {
		case msg := <-a.queue:
			a.send(msg)
		case <-a.stop:
			// дочищаем то, что уже в очереди
			for {
				select {
				case msg := <-a.queue:
					a.send(msg)
				default:
					return
				}
			}
		}
	}
}

func (a *Async) send(msg string) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("[NOTIFY] panic in notifier: %v", p)
		}
	}()
	a.next.Notify(msg)
}

// Close останавливает отправку, дожидаясь уже поставленных сообщений.
func (a *Async) Close() {
	a.once.Do(func() { close(a.stop) })
	<-a.done
}
