package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/medical-ann/internal/cfg"
	v1Http "github.com/DRSN-tech/medical-ann/internal/delivery/v1/http"
	"github.com/DRSN-tech/medical-ann/internal/infrastructure/lock"
	minioInfra "github.com/DRSN-tech/medical-ann/internal/infrastructure/minio"
	"github.com/DRSN-tech/medical-ann/internal/repository/fs"
	s3Repo "github.com/DRSN-tech/medical-ann/internal/repository/minio"
	"github.com/DRSN-tech/medical-ann/internal/repository/redis"
	"github.com/DRSN-tech/medical-ann/internal/usecase"
	"github.com/DRSN-tech/medical-ann/pkg/clients"
	"github.com/DRSN-tech/medical-ann/pkg/closer"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	initTimeout     = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App собирает сервис загрузки: слот на диске, блокировку, необязательное зеркало в MinIO и HTTP сервер.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	httpSrv *v1Http.Server
	closer  *closer.Closer

	// отменяется при остановке, прерывает ретраи зеркала
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   logger,
		closer:   closer.NewCloser(0),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		a.shutdown()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	slotRepo := fs.NewSlotRepo(a.cfg.Upload.Dir)

	locker, err := a.initLocker()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	mirror, err := a.initMirror()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	uploadUC := usecase.NewUploadUC(
		slotRepo,
		locker,
		mirror,
		usecase.SlotCfg{SlotName: a.cfg.Upload.SlotName, DefaultExt: a.cfg.Upload.DefaultExt},
		a.cfg.Upload.LockTimeout,
		a.logger,
	)

	r := chi.NewRouter()
	if err := v1Http.NewRouter(r, a.cfg, a.logger).Init(uploadUC); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return nil
}

func (a *App) initLocker() (usecase.SlotLocker, error) {
	if a.cfg.Upload.LockBackend != config.LockBackendRedis {
		a.logger.Infof("slot lock: in-process")
		return lock.NewLocalLocker(), nil
	}

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.AddCloser("redis", redisClient.Close)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := redisClient.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	a.logger.Infof("slot lock: redis %s", a.cfg.Redis.Addr)
	return redis.NewSlotLock(redisClient, a.cfg.Redis, a.logger), nil
}

// initMirror возвращает nil, если MinIO не настроен.
func (a *App) initMirror() (usecase.ArtifactMirror, error) {
	if !a.cfg.Minio.Enabled() {
		a.logger.Infof("artifact mirror disabled")
		return nil, nil
	}

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	artifactRepo := s3Repo.NewArtifactRepo(minioClient, a.cfg.Minio)
	mirror := minioInfra.NewMirrorInfrastructure(artifactRepo, a.cfg.Minio.MaxRetries, a.logger, a.bgCtx)

	// регистрируется до HTTP сервера, поэтому ждём зеркало уже после остановки приёма запросов
	a.closer.Add("minio mirror", mirror.WaitForMirror)

	a.logger.Infof("artifact mirror: %s/%s", a.cfg.Minio.MinioEndpoint, a.cfg.Minio.BucketName)
	return mirror, nil
}

// Run обслуживает запросы до сигнала остановки или ошибки сервера.
func (a *App) Run() error {
	addr, err := a.httpSrv.Listen()
	if err != nil {
		a.logger.Errorf(err, "failed to listen on port %s", a.cfg.Http.Port)
		a.shutdown()
		return e.Wrap(whereami.WhereAmI(), err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on %s", addr)
		errCh <- a.httpSrv.Run()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		if appErr != nil {
			a.logger.Errorf(appErr, "HTTP server fatal error")
		}
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.shutdown()
	a.logger.Infof("Application shutdown complete")

	return appErr
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Warnf("shutdown: %v", err)
	}
	a.bgCancel()
}
