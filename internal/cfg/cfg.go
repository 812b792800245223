package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type Config struct {
	Http   *HTTPConfig
	Upload *UploadCfg
	Minio  *MinIOCfg
	Qdrant *QdrantCfg
	Redis  *RedisCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TemplatesDir string // пусто - используется встроенный шаблон
	StaticDir    string
	SwaggerURL   string
}

type UploadCfg struct {
	Dir          string // каталог слота, по умолчанию рабочий каталог
	SlotName     string // базовое имя файла слота
	DefaultExt   string // расширение, если у файла его нет
	FieldName    string // имя поля multipart-формы
	MaxBytes     int64
	StrictStatus bool   // отдавать код ошибки вместо 200 при неудачной загрузке
	LockBackend  string // local | redis
	LockTimeout  time.Duration
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес MinIO; пусто - зеркалирование выключено
	BucketName        string
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	MaxRetries        int
}

// Enabled сообщает, настроено ли зеркалирование артефактов в MinIO.
func (c *MinIOCfg) Enabled() bool {
	return c != nil && c.MinioEndpoint != ""
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string
	UseTLS               bool
	Timeout              time.Duration
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	LockTTL     time.Duration
}

// Load загружает конфигурацию сервера загрузки.
func Load(log logger.Logger) (*Config, error) {
	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	upload, err := loadUploadCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var redis *RedisCfg
	if upload.LockBackend == LockBackendRedis {
		redis, err = loadRedisCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return &Config{
		Http:   http,
		Upload: upload,
		Minio:  minio,
		Redis:  redis,
	}, nil
}

// LoadQdrant загружает конфигурацию векторного индекса для CLI загрузчика.
func LoadQdrant(log logger.Logger) (*QdrantCfg, error) {
	q, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return q, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8000"
		defaultReadTimeout  = 15 * time.Second
		defaultWriteTimeout = 15 * time.Second
		defaultIdleTimeout  = 60 * time.Second
		defaultStaticDir    = "static"
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		TemplatesDir: getEnv("TEMPLATES_DIR"),
		StaticDir:    getEnvOrDefault("STATIC_DIR", defaultStaticDir),
		SwaggerURL:   getEnvOrDefault("SWAGGER_URL", "http://localhost:"+port+"/swagger/doc.json"),
	}, nil
}

func loadUploadCfg(log logger.Logger) (*UploadCfg, error) {
	const (
		defaultDir         = "."
		defaultSlotName    = "uploaded_image"
		defaultExt         = "jpg"
		defaultFieldName   = "file"
		defaultMaxBytes    = 15 << 20
		defaultLockTimeout = 10 * time.Second
	)

	maxBytes, err := parseIntEnv("UPLOAD_MAX_BYTES", defaultMaxBytes)
	if err != nil || maxBytes <= 0 {
		err = e.Wrap("UPLOAD_MAX_BYTES", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid UPLOAD_MAX_BYTES")
		return nil, err
	}

	strict, err := parseBoolEnv("UPLOAD_STRICT_STATUS", false)
	if err != nil {
		log.Errorf(err, "invalid UPLOAD_STRICT_STATUS")
		return nil, err
	}

	lockTimeout, err := parseDurationEnv("UPLOAD_LOCK_TIMEOUT", defaultLockTimeout)
	if err != nil {
		log.Errorf(err, "invalid UPLOAD_LOCK_TIMEOUT")
		return nil, err
	}

	backend := strings.ToLower(getEnvOrDefault("UPLOAD_LOCK_BACKEND", LockBackendLocal))
	if backend != LockBackendLocal && backend != LockBackendRedis {
		err := fmt.Errorf("UPLOAD_LOCK_BACKEND must be %q or %q, got %q", LockBackendLocal, LockBackendRedis, backend)
		log.Errorf(err, "invalid UPLOAD_LOCK_BACKEND")
		return nil, err
	}

	ext := strings.TrimPrefix(getEnvOrDefault("UPLOAD_DEFAULT_EXT", defaultExt), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		err := e.Wrap("UPLOAD_DEFAULT_EXT", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid UPLOAD_DEFAULT_EXT")
		return nil, err
	}

	slot := getEnvOrDefault("UPLOAD_SLOT_NAME", defaultSlotName)
	if strings.ContainsAny(slot, `/\`) {
		err := e.Wrap("UPLOAD_SLOT_NAME", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid UPLOAD_SLOT_NAME")
		return nil, err
	}

	return &UploadCfg{
		Dir:          getEnvOrDefault("UPLOAD_DIR", defaultDir),
		SlotName:     slot,
		DefaultExt:   ext,
		FieldName:    getEnvOrDefault("UPLOAD_FIELD_NAME", defaultFieldName),
		MaxBytes:     int64(maxBytes),
		StrictStatus: strict,
		LockBackend:  backend,
		LockTimeout:  lockTimeout,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL     = false
		defaultBucket     = "uploads"
		defaultMaxRetries = 3
	)

	useSSL, err := parseBoolEnv("MINIO_USE_SSL", defaultUseSSL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MINIO_MAX_RETRIES", defaultMaxRetries)
	if err != nil || maxRetries < 1 {
		err = e.Wrap("MINIO_MAX_RETRIES", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid MINIO_MAX_RETRIES")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnv("MINIO_ENDPOINT"),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		MaxRetries:        maxRetries,
	}, nil
}

func loadQdrantCfg(log logger.Logger) (*QdrantCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultQdrantGRPCPort = 6334
		defaultCollection     = "xray_embeddings"
		defaultTimeout        = 30 * time.Second
	)

	port, err := parseIntEnv("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := parseBoolEnv("QDRANT_USE_TLS", false)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	timeout, err := parseDurationEnv("QDRANT_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_TIMEOUT")
		return nil, err
	}

	return &QdrantCfg{
		Host:                 getEnvOrDefault("QDRANT_HOST", defaultHost),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		Timeout:              timeout,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultLockTTL      = 30 * time.Second
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	lockTTL, err := parseDurationEnv("UPLOAD_LOCK_TTL", defaultLockTTL)
	if err != nil {
		log.Errorf(err, "invalid UPLOAD_LOCK_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		LockTTL:     lockTTL,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return intValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return b, nil
}
