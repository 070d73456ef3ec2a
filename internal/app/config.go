package app

import (
	"strings"
	"time"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/utils"
)

type Config struct {
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AdminEmails    []string
	RedisEnabled   bool
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)

	var adminEmails []string
	for _, e := range strings.Split(utils.GetEnv("ADMIN_EMAILS", "", log), ",") {
		if e = strings.TrimSpace(e); e != "" {
			adminEmails = append(adminEmails, e)
		}
	}

	redisEnabled := utils.GetEnv("REDIS_ADDR", "", log) != ""

	return Config{
		JWTSecretKey:   jwtSecretKey,
		AccessTokenTTL: time.Duration(accessTokenTTLSeconds) * time.Second,
		AdminEmails:    adminEmails,
		RedisEnabled:   redisEnabled,
	}
}
