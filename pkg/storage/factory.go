package storage

import "fmt"

type Config struct {
	Type       string `env:"STORAGE_TYPE"        envDefault:"memory"`
	BadgerPath string `env:"STORAGE_BADGER_PATH" envDefault:"./data/badger"`
}

// New builds a Storage from the configured backend type.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "memory":
		return NewInMemoryStorage(), nil
	case "badger":
		return NewBadgerStorage(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
