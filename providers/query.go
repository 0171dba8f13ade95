package providers

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/solvire/fartemis/resolution/types"
)

// BuildQuery строит поисковый запрос из критериев: имя, работодатель
// и ключевое слово профильной площадки
func BuildQuery(criteria types.SearchCriteria) string {
	parts := []string{criteria.FullName()}
	if criteria.Company != "" {
		parts = append(parts, criteria.Company)
	}
	if criteria.RoleHint != "" {
		parts = append(parts, criteria.RoleHint)
	}
	parts = append(parts, "linkedin")
	return strings.Join(parts, " ")
}

// classifyTransportError переводит транспортную ошибку в типизированную
// ошибку провайдера: таймауты отличаются от недоступности
func classifyTransportError(provider string, err error) *types.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewTimeoutError(provider, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewTimeoutError(provider, err)
	}
	return types.NewUnavailableError(provider, err)
}
