package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/audit"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/auth"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/config"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gateway"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gym"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/notify"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/payment"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/plan"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/settlement"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/subscription"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, gw gateway.Gateway, auditSvc *audit.Service, notifySvc *notify.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	userRepo := user.NewRepository(db)
	gymRepo := gym.NewRepository(db)
	planRepo := plan.NewRepository(db)
	subRepo := subscription.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	settlementRepo := settlement.NewRepository(db)

	subService := subscription.NewService(subRepo, planRepo, gymRepo, userRepo, paymentRepo, gw)
	paymentService := payment.NewService(paymentRepo, subRepo, gw, auditSvc, notifySvc)
	settlementService := settlement.NewService(settlementRepo, gymRepo, auditSvc, notifySvc)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	gymHandler := gym.NewHandler(gymRepo)
	planHandler := plan.NewHandler(planRepo)
	subHandler := subscription.NewHandler(subService, subRepo)
	paymentHandler := payment.NewHandler(paymentService)
	settlementHandler := settlement.NewHandler(settlementService, gymRepo)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
	}

	// the gateway posts here without a user token; the payload itself is
	// authenticated by signature verification
	router.POST("/payments/callback", paymentHandler.Callback)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/gyms", gymHandler.List)
		protected.GET("/gyms/:gymID", gymHandler.Get)
		protected.GET("/gyms/:gymID/plans", planHandler.ListByGym)
		protected.GET("/plans/:planID", planHandler.Get)
		protected.POST("/subscriptions", subHandler.Create)
		protected.GET("/subscriptions", subHandler.ListMy)
		protected.GET("/access-codes/:code", subHandler.VerifyAccessCode)
	}

	operator := router.Group("/settlements")
	operator.Use(authMiddleware, auth.RequireRole(auth.RoleOwner, auth.RoleAdmin))
	{
		operator.GET("", settlementHandler.List)
		operator.POST("/gyms/:gymID", settlementHandler.Create)
		operator.GET("/gyms/:gymID/unsettled", settlementHandler.GetUnsettled)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/gyms", gymHandler.Create)
		admin.POST("/settlements/:id/process", settlementHandler.Process)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/system/queues", authMiddleware, auth.RequireRole(auth.RoleAdmin), QueueStats(auditSvc, notifySvc))

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
