package journal

import "fmt"

const (
	defaultFilePrefix = "replay"
	defaultBufferSize = 64 * 1024
)

// Config controls where journal files are created.
type Config struct {
	Dir        string
	FilePrefix string
	// BufferSize is the write buffer in bytes. Zero writes every record
	// straight to the file.
	BufferSize int
}

// DefaultConfig returns a baseline configuration for the journal.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		FilePrefix: defaultFilePrefix,
		BufferSize: defaultBufferSize,
	}
}

func (c Config) withDefaults() Config {
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid journal config: Dir is empty")
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("invalid journal config: BufferSize must be >= 0")
	}
	return nil
}
