package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppErrorConstructors(t *testing.T) {
	cause := errors.New("row not found")

	tests := []struct {
		name     string
		appErr   *AppError
		wantCode int
	}{
		{"not found", NewNotFoundError("Запуск не найден", cause), http.StatusNotFound},
		{"validation", NewValidationError("Некорректное тело запроса", cause), http.StatusBadRequest},
		{"internal", NewInternalError("failed to list lookups", cause), http.StatusInternalServerError},
		{"unavailable", NewServiceUnavailableError("Провайдеры недоступны", cause), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.appErr.StatusCode() != tt.wantCode {
				t.Errorf("StatusCode() = %d, want %d", tt.appErr.StatusCode(), tt.wantCode)
			}
			if !errors.Is(tt.appErr, cause) {
				t.Error("wrapped cause should be reachable via errors.Is")
			}
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	appErr := NewInternalError("failed to query lookups", errors.New("disk I/O error"))

	// Пользователь видит только общее сообщение, детали уходят в лог
	if appErr.UserMessage() != "Внутренняя ошибка сервера" {
		t.Errorf("UserMessage() = %q", appErr.UserMessage())
	}
	if appErr.Err == nil {
		t.Fatal("internal details must be preserved for logging")
	}
}

func TestWithContext(t *testing.T) {
	appErr := NewValidationError("Некорректные критерии поиска", nil).WithContext("handleLookup")

	if appErr.Context != "handleLookup" {
		t.Errorf("Context = %q, want handleLookup", appErr.Context)
	}
	if appErr.Error() != "Некорректные критерии поиска" {
		t.Errorf("Error() = %q", appErr.Error())
	}
}
