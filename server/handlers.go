package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solvire/fartemis/resolution/types"
	apperrors "github.com/solvire/fartemis/server/errors"
)

// LookupRequest тело запроса поиска профиля
type LookupRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Company   string `json:"company"`
	RoleHint  string `json:"role_hint"`
}

// handleLookup выполняет запуск резолюции профиля
func (s *Server) handleLookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}

	criteria := types.SearchCriteria{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		RoleHint:  req.RoleHint,
	}

	cacheKey := CacheKey(criteria)
	if cached, found := s.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	// Без единого доступного провайдера запуск не даст свидетельств
	if !s.engine.ProvidersAvailable() {
		s.respondError(c, apperrors.NewServiceUnavailableError("Провайдеры поиска недоступны", nil).WithContext("handleLookup"))
		return
	}

	result, err := s.engine.Resolve(c.Request.Context(), criteria)
	if err != nil {
		// До обращений к провайдерам возможна только ошибка конфигурации
		s.respondError(c, apperrors.NewValidationError("Некорректные критерии поиска", err))
		return
	}

	if s.repo != nil {
		if err := s.repo.SaveResult(result); err != nil {
			s.logger.Error("не удалось сохранить запуск", "run_id", result.RunID, "error", err)
		}
	}

	s.cache.Set(cacheKey, result)
	c.JSON(http.StatusOK, result)
}

// handleListLookups возвращает историю запусков
func (s *Server) handleListLookups(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(c, apperrors.NewValidationError("Параметр limit должен быть положительным числом", err))
			return
		}
		limit = parsed
	}

	records, err := s.repo.ListRecent(limit)
	if err != nil {
		s.respondError(c, apperrors.NewInternalError("failed to list lookups", err).WithContext("handleListLookups"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lookups": records,
		"count":   len(records),
	})
}

// handleGetLookup возвращает запуск по идентификатору
func (s *Server) handleGetLookup(c *gin.Context) {
	runID := c.Param("run_id")

	record, err := s.repo.GetByRunID(runID)
	if err != nil {
		s.respondError(c, apperrors.NewInternalError("failed to get lookup", err).WithContext("handleGetLookup"))
		return
	}
	if record == nil {
		s.respondError(c, apperrors.NewNotFoundError("Запуск не найден", nil))
		return
	}

	c.JSON(http.StatusOK, record)
}

// handleExportLookups отдает историю запусков файлом XLSX
func (s *Server) handleExportLookups(c *gin.Context) {
	records, err := s.repo.ListRecent(0)
	if err != nil {
		s.respondError(c, apperrors.NewInternalError("failed to list lookups", err).WithContext("handleExportLookups"))
		return
	}

	data, err := s.exporter().ExportLookups(records)
	if err != nil {
		s.respondError(c, apperrors.NewInternalError("failed to export lookups", err).WithContext("handleExportLookups"))
		return
	}

	filename := fmt.Sprintf("lookups_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// handleProviderStats возвращает статистику надежности провайдеров
func (s *Server) handleProviderStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": s.reliability.GetAllStats(),
		"cache":     s.cache.Stats(),
	})
}

// handleHealth проверка работоспособности
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// respondError отправляет ошибку приложения и пишет детали в лог
func (s *Server) respondError(c *gin.Context, appErr *apperrors.AppError) {
	if appErr.Code >= http.StatusInternalServerError {
		s.logger.Error("ошибка обработки запроса",
			"path", c.Request.URL.Path, "context", appErr.Context, "error", appErr.Err)
	}
	c.JSON(appErr.StatusCode(), appErr)
}
