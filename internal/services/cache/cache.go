package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/phambaophuc/image-resizer/internal/resolver"
)

const CacheKeyPrefix = "img_export:"

// Store keeps encoded exports. A miss is (nil, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
	Name() string
	Close() error
}

// GenerateCacheKey identifies one export of one loaded image.
func GenerateCacheKey(imageID string, size resolver.Dimensions, quality int) string {
	keyParts := []string{
		imageID,
		fmt.Sprintf("resize_%d_%d", size.Width, size.Height),
		fmt.Sprintf("quality_%d", quality),
	}

	hash := sha256.Sum256([]byte(strings.Join(keyParts, "_")))
	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash)
}
