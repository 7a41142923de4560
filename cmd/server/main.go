package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vaahiiid/askimateplatform/internal/config"
	"github.com/vaahiiid/askimateplatform/internal/handler"
	"github.com/vaahiiid/askimateplatform/internal/indexer"
	"github.com/vaahiiid/askimateplatform/internal/middleware"
	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/internal/pipeline"
	"github.com/vaahiiid/askimateplatform/internal/repository"
	"github.com/vaahiiid/askimateplatform/internal/service"
	"github.com/vaahiiid/askimateplatform/pkg/database"
	"github.com/vaahiiid/askimateplatform/pkg/es"
	"github.com/vaahiiid/askimateplatform/pkg/intent"
	"github.com/vaahiiid/askimateplatform/pkg/kafka"
	"github.com/vaahiiid/askimateplatform/pkg/langdetect"
	"github.com/vaahiiid/askimateplatform/pkg/llm"
	"github.com/vaahiiid/askimateplatform/pkg/log"
	"github.com/vaahiiid/askimateplatform/pkg/mail"
	"github.com/vaahiiid/askimateplatform/pkg/storage"
	"github.com/vaahiiid/askimateplatform/pkg/token"
	"github.com/vaahiiid/askimateplatform/pkg/translate"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")

	// 2. 初始化日志
	log.Init(config.Conf.Log.Level, config.Conf.Log.Format, config.Conf.Log.OutputPath)
	defer log.Sync()
	log.Info("配置和日志初始化成功")

	// 3. 初始化 MySQL 并自动迁移表结构
	database.InitMySQL(config.Conf.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.ConversationSession{},
		&model.ChatMessage{},
	); err != nil {
		log.Fatal("数据库自动迁移失败", err)
	}
	log.Info("MySQL 初始化成功")

	// 4. 初始化 Redis
	database.InitRedis(
		config.Conf.Database.Redis.Addr,
		config.Conf.Database.Redis.Password,
		config.Conf.Database.Redis.DB,
	)
	log.Info("Redis 初始化成功")

	// 5. 初始化 MinIO（转写归档）
	archiving := config.Conf.MinIO.Endpoint != ""
	if archiving {
		storage.InitMinIO(config.Conf.MinIO)
		log.Info("MinIO 初始化成功")
	} else {
		log.Warnf("未配置 MinIO，会话删除时将不做转写归档")
	}

	// 6. 初始化 Elasticsearch 与 Kafka（回合事件索引链路）
	eventsReady := config.Conf.Kafka.Brokers != "" && config.Conf.Elasticsearch.Addresses != ""
	if eventsReady {
		if err := es.InitES(config.Conf.Elasticsearch); err != nil {
			log.Fatal("Elasticsearch 初始化失败", err)
		}
		kafka.InitProducer(config.Conf.Kafka)
		go kafka.StartConsumer(config.Conf.Kafka, indexer.NewIndexer(config.Conf.Elasticsearch))
		log.Info("Kafka 与 Elasticsearch 初始化成功，转写索引消费者已启动")
	} else {
		log.Warnf("未配置 Kafka/Elasticsearch，回合事件索引已禁用")
	}

	// 7. 组装依赖
	jwtManager := token.NewJWTManager(
		config.Conf.JWT.Secret,
		config.Conf.JWT.AccessTokenExpireHours,
		config.Conf.JWT.RefreshTokenExpireDays,
	)

	userRepo := repository.NewUserRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.DB)

	llmClient := llm.NewClient(config.Conf.LLM)
	detector := langdetect.New(config.Conf.Detector, llmClient)
	translator := translate.New(llmClient, time.Duration(config.Conf.LLM.TimeoutSeconds)*time.Second)
	grounder := intent.NewClient(config.Conf.Intent)

	turns := pipeline.New(detector, translator, grounder, llmClient, sessionRepo, config.Conf.LLM)

	userService := service.NewUserService(userRepo, jwtManager)
	chatService := service.NewChatService(sessionRepo, turns, eventsReady)
	sessionService := service.NewSessionService(sessionRepo, config.Conf.MinIO, archiving)
	contactService := service.NewContactService(userRepo, mail.NewMailer(config.Conf.Mail))
	adminService := service.NewAdminService(config.Conf.Elasticsearch)

	userHandler := handler.NewUserHandler(userService)
	authHandler := handler.NewAuthHandler(userService)
	chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)
	sessionHandler := handler.NewSessionHandler(sessionService)
	contactHandler := handler.NewContactHandler(contactService)
	adminHandler := handler.NewAdminHandler(adminService)

	// 8. 初始化 gin 引擎并注册路由
	gin.SetMode(config.Conf.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// WebSocket 聊天传输，token 在路径中携带
	r.GET("/chat/:token", chatHandler.HandleWebSocket)

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.POST("/users/register", userHandler.Register)
		apiV1.POST("/users/login", userHandler.Login)
		apiV1.POST("/auth/refreshToken", authHandler.Refresh)
		apiV1.POST("/waitlist", contactHandler.JoinWaitlist)
		apiV1.POST("/contact", contactHandler.SubmitContact)

		// 需要认证的接口
		authed := apiV1.Group("")
		authed.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			authed.POST("/users/logout", userHandler.Logout)
			authed.GET("/users/me", userHandler.Me)

			authed.POST("/chat", chatHandler.Chat)

			authed.POST("/chat/sessions", sessionHandler.Create)
			authed.GET("/chat/sessions", sessionHandler.List)
			authed.GET("/chat/sessions/:sessionId/messages", sessionHandler.Messages)
			authed.DELETE("/chat/sessions/:sessionId", sessionHandler.Delete)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			admin.GET("/transcripts/search", adminHandler.SearchTranscripts)
		}
	}

	// 9. 启动服务并实现优雅停机
	srv := &http.Server{
		Addr:    ":" + config.Conf.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("服务器启动，监听端口: %s", config.Conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("服务器启动失败", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到停机信号，服务器关闭中...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器被强制关闭", err)
	}

	log.Info("服务器已退出")
}
