package usecase

import (
	"io"

	"github.com/DRSN-tech/medical-ann/internal/domain"
)

// UPLOAD USECASE

// UploadReq - загруженный файл: необязательное исходное имя и поток байт.
type UploadReq struct {
	FileName string
	Data     io.Reader
}

// UploadRes - результат записи в слот.
type UploadRes struct {
	Artifact *domain.Artifact
}

// SlotCfg - параметры слота загрузки.
type SlotCfg struct {
	SlotName   string // базовое имя, оно же имя по умолчанию для безымянных файлов
	DefaultExt string
}

// MAPPERS

func NewUploadReq(fileName string, data io.Reader) *UploadReq {
	return &UploadReq{
		FileName: fileName,
		Data:     data,
	}
}

func NewUploadRes(artifact *domain.Artifact) *UploadRes {
	return &UploadRes{
		Artifact: artifact,
	}
}
