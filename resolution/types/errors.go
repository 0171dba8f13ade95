package types

import (
	"errors"
	"fmt"
)

// ProviderErrorKind вид ошибки провайдера
type ProviderErrorKind string

const (
	ErrKindTimeout     ProviderErrorKind = "timeout"
	ErrKindRateLimited ProviderErrorKind = "rate_limited"
	ErrKindUnparseable ProviderErrorKind = "unparseable"
	ErrKindUnavailable ProviderErrorKind = "unavailable"
)

// ProviderError ошибка одного провайдера. Всегда локальна: не проваливает запуск,
// а превращается в свидетельство неполноты данных.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Err      error
}

// Error реализует интерфейс error
func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
}

// Unwrap возвращает вложенную ошибку для errors.Is и errors.As
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewTimeoutError создает ошибку таймаута провайдера
func NewTimeoutError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrKindTimeout, Err: err}
}

// NewRateLimitedError создает ошибку превышения лимита запросов
func NewRateLimitedError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrKindRateLimited, Err: err}
}

// NewUnparseableError создает ошибку нечитаемого ответа провайдера
func NewUnparseableError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrKindUnparseable, Err: err}
}

// NewUnavailableError создает ошибку недоступности провайдера
func NewUnavailableError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrKindUnavailable, Err: err}
}

// ErrorKind извлекает вид ошибки провайдера из цепочки ошибок.
// Возвращает пустой kind, если ошибка не является ProviderError.
func ErrorKind(err error) ProviderErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// ConfigurationError фатальная ошибка конфигурации.
// Поднимается до любых обращений к провайдерам и не восстанавливается внутри запуска.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error реализует интерфейс error
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
