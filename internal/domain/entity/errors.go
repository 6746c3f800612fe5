package entity

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind класс ошибки конвейера цензуры.
type ErrorKind string

const (
	KindConfiguration  ErrorKind = "configuration"  // неизвестная категория или плагин
	KindInput          ErrorKind = "input"          // нечитаемый или неподдерживаемый файл
	KindRuntime        ErrorKind = "runtime"        // сбой внешнего компонента
	KindRetryable      ErrorKind = "retryable"      // таймаут или отмена внешнего вызова
	KindIntegrity      ErrorKind = "integrity"      // нарушена целостность результата
	KindClassification ErrorKind = "classification" // ответ классификатора не разобран
)

var (
	ErrPluginNotFound          = errors.New("plugin not found")
	ErrDuplicatePlugin         = errors.New("plugin already registered")
	ErrUnknownCategory         = errors.New("unknown blacklist category")
	ErrUnsupportedMedia        = errors.New("unsupported media type")
	ErrUnreadableMedia         = errors.New("unreadable media")
	ErrChannelCount            = errors.New("wrong number of channels")
	ErrDurationMismatch        = errors.New("censored audio duration does not match video")
	ErrMalformedClassification = errors.New("malformed profanity classification")
	ErrInvalidIntervals        = errors.New("intervals overlap or are out of order")
)

// CensorError структурированная ошибка запроса на цензуру.
type CensorError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError оборачивает err в CensorError.
func NewError(kind ErrorKind, op string, err error) *CensorError {
	return &CensorError{Kind: kind, Op: op, Err: err}
}

func (e *CensorError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *CensorError) Unwrap() error {
	return e.Err
}

// KindOf возвращает класс ошибки, по умолчанию KindRuntime.
func KindOf(err error) ErrorKind {
	var ce *CensorError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if IsRetryable(err) {
		return KindRetryable
	}
	return KindRuntime
}

// IsFatal сообщает, что ошибка прерывает весь запрос.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConfiguration, KindInput, KindIntegrity, KindClassification:
		return true
	}
	return false
}

// IsRetryable сообщает, что внешний вызов прервался по таймауту или отмене и его можно повторить.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ce *CensorError
	if errors.As(err, &ce) && ce.Kind == KindRetryable {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// WrapCall приводит ошибку внешнего вызова к структурированному виду:
// таймауты становятся KindRetryable, остальное — KindRuntime.
func WrapCall(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CensorError
	if errors.As(err, &ce) {
		return err
	}
	if IsRetryable(err) {
		return NewError(KindRetryable, op, err)
	}
	return NewError(KindRuntime, op, err)
}
