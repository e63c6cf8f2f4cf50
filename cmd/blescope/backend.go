package main

import (
	"fmt"

	"blescope/internal/ble"
	"blescope/internal/ble/goble"
	"blescope/internal/ble/mock"
	"blescope/internal/ble/tinygo"
	"blescope/internal/config"
)

// backend is a ble.Client that owns an adapter.
type backend interface {
	ble.Client
	Close() error
}

// openBackend opens the BLE stack named by cfg.Kind.
func openBackend(cfg config.BackendConfig) (backend, error) {
	switch cfg.Kind {
	case config.BackendGoBLE:
		c, err := goble.New(cfg.HCI)
		if err != nil {
			return nil, fmt.Errorf("goble backend: %w", err)
		}
		return c, nil
	case config.BackendTinyGo:
		c, err := tinygo.New()
		if err != nil {
			return nil, fmt.Errorf("tinygo backend: %w", err)
		}
		return c, nil
	case config.BackendMock:
		return nopCloser{mock.Demo()}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Kind)
}

type nopCloser struct {
	ble.Client
}

func (nopCloser) Close() error { return nil }
