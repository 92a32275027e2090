package runner

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindTransient  ErrorKind = "transient"  // fetch/ордер: повторим через интервал
	KindUnexpected ErrorKind = "unexpected" // всё прочее
	KindPanic      ErrorKind = "panic"      // поймали панику на границе цикла
)

// CycleError: ошибка цикла воркера с классификацией. Воркер никогда не останавливается на ней.
type CycleError struct {
	Kind   ErrorKind
	Symbol string
	Op     string
	Err    error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s %s [%s]: %v", e.Symbol, e.Op, e.Kind, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

func transient(symbol, op string, err error) error {
	return &CycleError{Kind: KindTransient, Symbol: symbol, Op: op, Err: err}
}

// Classify возвращает тип ошибки цикла. Неразмеченные ошибки: unexpected.
func Classify(err error) ErrorKind {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnexpected
}
