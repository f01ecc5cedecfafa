package main

import (
	"IMProject/global"
	"IMProject/logger"
	mid "IMProject/middleware"
	"IMProject/module/message"
	msgsrv "IMProject/module/message/service"
	"IMProject/module/user"
	"IMProject/service/chat"
	"IMProject/service/chat/handlers"
	"IMProject/service/mgo"
	natssrv "IMProject/service/nats"
	"IMProject/service/storage"
	sec "IMProject/tools/security"
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf := global.Conf()
	global.ConfigAll(ctx)

	producer, err := natssrv.Connect(conf.NatsURL, conf.NatsSubject)
	if err != nil {
		logger.Warnf("[main] nats connect failed, message mirror disabled: %v", err)
	}
	defer producer.Close()

	// gateway core: registry, presence, router, frame handlers
	s := chat.NewServer(conf.GatewayID, sec.DefaultOptions(global.GetJwtSecret()),
		chat.WithMirror(storage.Mirror{GatewayID: conf.GatewayID, TTL: 2 * time.Minute}),
	)
	handlers.RegisterAll(s)
	defer s.Close()

	msgHandler := message.NewHandler(
		msgsrv.NewMongoStore(mgo.GetDB()),
		message.PassthroughUploader{MaxBytes: 8 << 20},
		s.Router(),
		producer,
	)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/chat", s.HandleWS) // e.g. ws://localhost:8080/chat?userId=A or ?token=...

	mid.POST(r, "/api/login", user.HandlerLogin, mid.RouteOpt{IsAuth: false})
	mid.GET(r, "/api/users", user.HandlerUsers, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/messages/:id", msgHandler.History, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/messages/send/:id", msgHandler.Send, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/debug/conns", s.HandleDump, mid.RouteOpt{IsAuth: true})

	logger.Infof("[main] gateway %s listening on %s", conf.GatewayID, conf.HTTPAddr)
	if err := r.Run(conf.HTTPAddr); err != nil {
		logger.Errorf("[main] http server failed: %v", err)
	}
}
