package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/medical-ann/internal/metrics"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
)

// UploadUseCase сохраняет загруженный файл в единственный слот uploaded_image.<ext>.
// Каждая загрузка перезаписывает слот; запись под блокировкой пути, побеждает последний.
type UploadUseCase struct {
	slotRepo    SlotRepository
	locker      SlotLocker
	mirror      ArtifactMirror
	slot        SlotCfg
	lockTimeout time.Duration
	logger      logger.Logger
}

func NewUploadUC(
	slotRepo SlotRepository,
	locker SlotLocker,
	mirror ArtifactMirror,
	slot SlotCfg,
	lockTimeout time.Duration,
	logger logger.Logger,
) *UploadUseCase {
	return &UploadUseCase{
		slotRepo:    slotRepo,
		locker:      locker,
		mirror:      mirror,
		slot:        slot,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// StoreUpload записывает файл в слот. mirror может быть nil.
func (u *UploadUseCase) StoreUpload(ctx context.Context, req *UploadReq) (*UploadRes, error) {
	const op = "UploadUseCase.StoreUpload"

	name := SlotFileName(u.slot, req.FileName)

	lockCtx := ctx
	if u.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, u.lockTimeout)
		defer cancel()
	}

	unlock, err := u.locker.Lock(lockCtx, name)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, e.Wrap(op, err)
	}

	artifact, err := u.slotRepo.Write(ctx, name, req.Data)
	unlock()
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, e.Wrap(op, err)
	}

	metrics.UploadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.UploadBytes.Observe(float64(artifact.Size))
	u.logger.Infof("stored upload %q as %s (%d bytes, %s)", req.FileName, artifact.Name, artifact.Size, artifact.ContentType)

	if u.mirror != nil {
		u.mirror.Mirror(artifact)
	}

	return NewUploadRes(artifact), nil
}

// SlotFileName возвращает имя файла слота для исходного имени: <slot>.<ext>.
func SlotFileName(slot SlotCfg, fileName string) string {
	resolved := ResolveFileName(fileName, slot.SlotName)
	return slot.SlotName + "." + ResolveExtension(resolved, slot.DefaultExt)
}

// ResolveFileName возвращает исходное имя файла или fallback, если имя пустое.
func ResolveFileName(fileName, fallback string) string {
	if fileName == "" {
		return fallback
	}

	return fileName
}

// ResolveExtension возвращает часть базового имени после последней точки.
// Имя без точки, с точкой в начале (".png") или в конце считается именем без расширения.
func ResolveExtension(fileName, defaultExt string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}

	dot := strings.LastIndexByte(base, '.')
	// "scan." даёт пустое расширение, в слот пишется <slot>.<defaultExt>, а не "uploaded_image."
	if dot <= 0 || dot == len(base)-1 {
		return defaultExt
	}

	return base[dot+1:]
}
