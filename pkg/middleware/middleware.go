package middleware

import (
	"context"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wagateway/pkg/constant"
)

// SecretVerifier checks a tenant's shared secret against the stored hash.
type SecretVerifier interface {
	VerifySecret(ctx context.Context, id uint, secret string) error
}

func ClaimIp() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("CurrentIP", c.ClientIP())
		c.Next()
	}
}

func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("admin_key") != os.Getenv("ADMIN_KEY") {
			c.JSON(400, gin.H{"message": "Unauthorized access"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// TenantAuth guards the messaging routes: the caller must present the
// tenant's secret key in the secret_key header. The admin key bypasses
// the check so operators can drive any tenant.
func TenantAuth(verifier SecretVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey := os.Getenv("ADMIN_KEY"); adminKey != "" && c.GetHeader("admin_key") == adminKey {
			c.Next()
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"message": constant.INVALID_REQUEST})
			c.Abort()
			return
		}

		secret := c.GetHeader("secret_key")
		if secret == "" {
			c.JSON(401, gin.H{"message": constant.UNAUTHORIZED_ACCESS})
			c.Abort()
			return
		}

		if err := verifier.VerifySecret(c.Request.Context(), uint(id), secret); err != nil {
			c.JSON(401, gin.H{"message": constant.UNAUTHORIZED_ACCESS})
			c.Abort()
			return
		}
		c.Next()
	}
}
