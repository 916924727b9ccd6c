package server

import (
	"context"
	"net/http"

	"github.com/reosaurous172214/NovelNest-Backend/internal/auth"
	"github.com/reosaurous172214/NovelNest-Backend/internal/config"
	"github.com/reosaurous172214/NovelNest-Backend/internal/email"
	"github.com/reosaurous172214/NovelNest-Backend/internal/novel"
	"github.com/reosaurous172214/NovelNest-Backend/internal/payment"
	"github.com/reosaurous172214/NovelNest-Backend/internal/purchase"
	"github.com/reosaurous172214/NovelNest-Backend/internal/search"
	"github.com/reosaurous172214/NovelNest-Backend/internal/user"
	"github.com/reosaurous172214/NovelNest-Backend/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service, trie *search.Trie) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	novelRepo := novel.NewRepository(db)
	novelHandler := novel.NewHandler(db, trie)
	walletHandler := wallet.NewHandler(db)
	paymentHandler := payment.NewHandler(db, emailService, cfg.PaymentWebhookSecret, cfg.ClientURL)
	purchaseHandler := purchase.NewHandler(db, emailService)
	searchHandler := search.NewHandler(trie, func(ctx context.Context) error {
		return novel.ReindexAll(ctx, novelRepo, trie)
	})

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	// Webhook and suggestions face the open internet without auth, so
	// both sit behind the per-IP limiter.
	router.POST("/payments/webhook", RateLimitMiddleware(10, 20), paymentHandler.Webhook)
	router.GET("/search/suggest", RateLimitMiddleware(20, 40), searchHandler.Suggest)
	router.GET("/payments/plans", paymentHandler.ListPlans)
	router.POST("/novels/:novelID/view", novelHandler.TrackView)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.POST("/payments/checkout", paymentHandler.CreateCheckout)
		protected.POST("/novels/:novelID/unlock", purchaseHandler.UnlockNovel)
		protected.POST("/chapters/:chapterID/unlock", purchaseHandler.UnlockChapter)
	}

	authorMiddleware := auth.RequireAnyRole(user.RoleAuthor, user.RoleAdmin)
	authors := router.Group("/novels")
	authors.Use(authMiddleware, authorMiddleware)
	{
		authors.POST("", novelHandler.Create)
		authors.PATCH("/:novelID", novelHandler.Rename)
		authors.POST("/:novelID/chapters", novelHandler.CreateChapter)
	}

	adminMiddleware := auth.RequireRole(user.RoleAdmin)
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/search/reindex", searchHandler.Reindex)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
