// Package analyze реализует HTTP-обработчик анализа юридического документа.
//
// Handler принимает файл multipart-формой, извлекает из него текст и
// передаёт сервису анализа. Нечитаемый ответ модели не считается
// ошибкой: клиент получает резервный результат с флагом degraded.
package analyze

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/docparse"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/services/document"
)

// Предел размера загружаемого документа.
const maxFileSize = 10 << 20 // 10 MiB

// Service описывает интерфейс бизнес-логики анализа документов.
type Service interface {
	Analyze(ctx context.Context, userUID, fileName string, data []byte) (*models.DocumentAnalysis, error)
}

// Handler обрабатывает HTTP-запросы анализа документов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проанализировать документ
// @Description Извлекает текст из файла (txt, pdf, docx) и возвращает структурированный анализ.
// @Tags Documents
// @Accept  multipart/form-data
// @Produce  json
// @Param file formData file true "Файл документа"
// @Success 200 {object} map[string]any "Результат анализа"
// @Failure 400 {object} response.ErrorResponse "Неподдерживаемый формат, нечитаемый файл или слишком короткий текст"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 413 {object} response.ErrorResponse "Файл слишком большой"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /documents/analyze [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.analyze"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Error("file field is missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("file is required"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if header.Size > maxFileSize {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		render.JSON(w, r, response.Error("file is too large"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read file"))
		return
	}

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Analyze(r.Context(), principal.UserUID, header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, docparse.ErrUnsupportedFormat):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unsupported file format"))
		case errors.Is(err, docparse.ErrInvalidDocument):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("document is corrupt or unreadable"))
		case errors.Is(err, document.ErrTextTooShort):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("document text is too short to analyse"))
		default:
			log.Error("failed to analyze document", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to analyze document"))
		}
		return
	}

	log.Info("document analyzed",
		slog.String("analysis_id", result.ID),
		slog.Bool("degraded", result.Degraded))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"analysis_id": result.ID,
		"file_name":   result.FileName,
		"analysis":    result.Analysis,
		"degraded":    result.Degraded,
	}))
}
