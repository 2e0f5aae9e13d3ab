package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer/internal/models"
)

// ValidateContentType guards raw-body uploads: the declared type must be an
// image or a generic binary stream. The bytes themselves are sniffed later.
func ValidateContentType() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		mediaType, _, err := mime.ParseMediaType(ctx.GetHeader("Content-Type"))
		if err == nil && (strings.HasPrefix(mediaType, "image/") || mediaType == "application/octet-stream") {
			ctx.Next()
			return
		}

		ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
			Success: false,
			Error:   "Content-Type must be an image type or application/octet-stream",
		})
	}
}
