package handler

import (
	"net/http"

	"laekning/internal/usecase"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// アップロードの上限（10MB）
const maxUploadBytes = 10 << 20

// /prescription-ocr と /search-results
type PrescriptionHandler struct {
	uc *usecase.PrescriptionUsecase
}

func NewPrescriptionHandler(uc *usecase.PrescriptionUsecase) *PrescriptionHandler {
	return &PrescriptionHandler{uc: uc}
}

type AnalyzeRequest struct {
	FileName string `json:"file_name" form:"fileName"`
	FileURL  string `json:"file_url" form:"fileUrl"`
}

type DeleteBlobRequest struct {
	FileName string `json:"file_name" form:"fileName"`
}

func (h *PrescriptionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/prescription-ocr")
	g.POST("", h.upload)
	g.POST("/analyze", h.analyze)
	g.POST("/delete", h.delete)

	e.GET("/search-results", h.searchResults)
}

func (h *PrescriptionHandler) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file required"})
	}
	if fh.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file required"})
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithField("component", "prescription").WithError(err).Debug("close upload")
		}
	}()

	out, err := h.uc.Upload(c.Request().Context(), usecase.UploadInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PrescriptionHandler) analyze(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Analyze(c.Request().Context(), req.FileName, req.FileURL)
	if err != nil {
		return writeError(c, err)
	}
	if out.RedirectTo != "" {
		return c.Redirect(http.StatusSeeOther, out.RedirectTo)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PrescriptionHandler) delete(c echo.Context) error {
	var req DeleteBlobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.Delete(c.Request().Context(), req.FileName); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *PrescriptionHandler) searchResults(c echo.Context) error {
	out, err := h.uc.Search(c.Request().Context(), c.QueryParam("ExtractedInscription"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
