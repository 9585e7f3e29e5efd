package config

type Storage struct{}

var _ StorageConfig = Storage{}

// GetStorageDriver is one of memory, sqlite or redis
func (Storage) GetStorageDriver() string {
	return GetEnv("STORAGE_DRIVER", "memory")
}

func (Storage) GetStorageNamespace() string {
	return GetEnv("STORAGE_NAMESPACE", "console")
}

func (Storage) GetSQLiteDSN() string {
	return GetEnv("SQLITE_DSN", "./data/console.db")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}
