package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// UserIdentityFromHeaders 取出 gateway 注入的呼叫者身分。
// 認證本身在 auth service 完成，這裡只信任內部 header。
func UserIdentityFromHeaders(c *gin.Context) (userID, userName, userEmail string, ok bool) {
	userID = c.GetHeader("X-User-ID")
	userName = c.GetHeader("X-User-Name")
	userEmail = c.GetHeader("X-User-Email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Missing user identity",
		})
		return "", "", "", false
	}
	return userID, userName, userEmail, true
}
