package global

import (
	"IMProject/logger"
	"IMProject/service/mgo"
	"IMProject/service/storage"
	"IMProject/tools/ids"
	"context"
	"sync"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig is loaded once from the environment (prefix IM_).
type AppConfig struct {
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	GatewayID string `envconfig:"GATEWAY_ID" default:"dm_gw-1"`
	NodeID    int64  `envconfig:"NODE_ID" default:"1"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o="`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"dmchat"`
	MongoUser     string `envconfig:"MONGO_USER" default:""`
	MongoPassword string `envconfig:"MONGO_PASSWORD" default:""`

	NatsURL     string `envconfig:"NATS_URL" default:""`
	NatsSubject string `envconfig:"NATS_SUBJECT" default:"im.message.created"`
}

var (
	conf     AppConfig
	loadOnce sync.Once
)

// Conf returns the process configuration, loading it on first use.
func Conf() *AppConfig {
	loadOnce.Do(func() {
		if err := envconfig.Process("im", &conf); err != nil {
			logger.Errorf("[config] load env failed: %v", err)
		}
	})
	return &conf
}

func GetJwtSecret() []byte {
	return []byte(Conf().JWTSecret)
}

func ConfigAll(ctx context.Context) {
	ConfigIds()
	ConfigRedis()
	ConfigMgo(ctx)
}

func ConfigIds() {
	ids.SetNodeID(Conf().NodeID)
}

func ConfigRedis() {
	c := Conf()
	err := storage.InitRedis(storage.Config{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err != nil {
		// presence mirror is advisory, the gateway keeps running without it
		logger.Warnf("[config] redis init failed: %v", err)
	}
}

func ConfigMgo(ctx context.Context) {
	c := Conf()
	err := mgo.Init(ctx, &mgo.Config{
		URI:         c.MongoURI,
		Database:    c.MongoDatabase,
		Username:    c.MongoUser,
		Password:    c.MongoPassword,
		MaxPoolSize: 20,
		MaxRetry:    3,
	})
	if err != nil {
		logger.Errorf("[config] mongo init failed: %v", err)
	}
}
