package backend

import (
	"errors"
	"fmt"

	"findash/internal/config"
)

// DefaultMemoryCapacity bounds the in-memory history.
const DefaultMemoryCapacity = 500

// Config selects and parameterizes a backend.
type Config struct {
	Type           Type
	SQLiteDBPath   string
	MemoryCapacity int
}

// FromAppConfig derives the backend config from the application config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Type:           Type(app.HistoryBackend),
		SQLiteDBPath:   app.SQLiteDBPath,
		MemoryCapacity: DefaultMemoryCapacity,
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %q", c.Type)
	}
	if c.Type == SQLite && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}
