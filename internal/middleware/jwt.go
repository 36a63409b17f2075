package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
)

func abort(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"code": status,
		"msg":  msg,
	})
	c.Abort()
}

func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.GlobalConfig == nil {
			logger.Error("配置未初始化")
			abort(c, http.StatusInternalServerError, "Unable to verify identity.")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "You must be logged in.")
			return
		}

		// 获取token
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abort(c, http.StatusUnauthorized, "Malformed authorization header.")
			return
		}

		claims, err := parseToken(parts[1], config.GlobalConfig.JWT.Secret)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token: "+err.Error())
			return
		}

		// 检查用户是否存在且未被删除
		var user model.User
		if err := database.DB.Unscoped().First(&user, claims.UserID).Error; err != nil {
			abort(c, http.StatusUnauthorized, "User does not exist.")
			return
		}
		if user.DeletedAt.Valid {
			abort(c, http.StatusUnauthorized, "User has been deleted.")
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("user", user)
		c.Next()
	}
}

type Claims struct {
	UserID uint `json:"userId"`
	jwt.StandardClaims
}

func parseToken(tokenString string, secretKey string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// GenerateToken 生成JWT token
func GenerateToken(userId uint) (string, error) {
	if config.GlobalConfig == nil {
		return "", fmt.Errorf("配置未初始化")
	}
	jwtConfig := config.GlobalConfig.JWT

	now := time.Now()
	claims := Claims{
		UserID: userId,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(time.Duration(jwtConfig.ExpireTime) * time.Second).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.Secret))
}
