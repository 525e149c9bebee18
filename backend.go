package footprints

import "context"

// Filesystem permissions for backends that write to disk
const (
	DefaultDirPermissions  = 0o755
	DefaultFilePermissions = 0o644
)

// Backend is a flat key-value object store. DocumentStore layers record
// semantics (JSON documents, per-model key prefixes, secondary indexes) on
// top of it, so any object store that can get/put/delete/list can serve as
// the record store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Ping checks backend health
	Ping(ctx context.Context) error

	// Close releases resources held by the backend
	Close() error
}

// BackendConfig holds configuration for any backend
type BackendConfig struct {
	Type       string // "s3", "gcs", "filesystem"
	Bucket     string // bucket name or base directory
	Region     string // AWS region (S3 only)
	Endpoint   string // custom endpoint (for S3-compatible services)
	PathPrefix string // optional prefix for all keys
}

// Validate checks if the BackendConfig is valid
func (c BackendConfig) Validate() error {
	if c.Type == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Type",
			"reason": "backend type is required",
		})
	}
	if c.Bucket == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Bucket",
			"reason": "bucket/base path is required",
		})
	}

	switch c.Type {
	case "s3":
		if c.Region == "" && c.Endpoint == "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"field":  "Region/Endpoint",
				"reason": "S3 backend requires either Region or Endpoint",
			})
		}
	case "gcs", "filesystem":
		// No additional validation needed
	default:
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Type",
			"value":  c.Type,
			"reason": "unknown backend type",
		})
	}

	return nil
}
