package http

import (
	"net/http"

	"github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/DRSN-tech/medical-ann/internal/usecase"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
)

type UploadHandler struct {
	uploadUC usecase.UploadUC
	cfg      *cfg.UploadCfg
	logger   logger.Logger
}

func NewUploadHandler(uploadUC usecase.UploadUC, cfg *cfg.UploadCfg, logger logger.Logger) *UploadHandler {
	return &UploadHandler{uploadUC: uploadUC, cfg: cfg, logger: logger}
}

// handleUpload
//
//	@Summary		Загрузка снимка
//	@Description	Сохраняет файл в слот uploaded_image.<ext>, перезаписывая предыдущий
//	@Tags			upload
//	@Accept			multipart/form-data
//	@Produce		plain
//	@Param			file	formData	file	true	"Файл снимка"
//	@Success		200		{string}	string	"File uploaded successfully!"
//	@Failure		400		{string}	string	"File upload failed."
//	@Failure		413		{string}	string	"File upload failed."
//	@Failure		500		{string}	string	"File upload failed."
//	@Router			/upload [post]
func (h *UploadHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBytes)

	if err := ensureMultipartForm(r, min(maxMemory, h.cfg.MaxBytes)); err != nil {
		h.fail(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fileName, err := uploadedFile(r.MultipartForm, h.cfg.FieldName)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer file.Close()

	if _, err := h.uploadUC.StoreUpload(r.Context(), usecase.NewUploadReq(fileName, file)); err != nil {
		h.fail(w, err)
		return
	}

	WriteText(w, http.StatusOK, UploadSuccessMessage)
}

// fail скрывает причину от клиента: в теле всегда один и тот же текст.
// Без UPLOAD_STRICT_STATUS статус остаётся 200.
func (h *UploadHandler) fail(w http.ResponseWriter, err error) {
	status := ToHTTPResponse(err)
	h.logger.Warnf("%d upload failed: %v", status, err)

	if !h.cfg.StrictStatus {
		status = http.StatusOK
	}

	WriteText(w, status, UploadFailureMessage)
}
