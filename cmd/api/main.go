package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"minimarket/internal/adapter/api"
	"minimarket/internal/adapter/api/handler"
	apimiddleware "minimarket/internal/adapter/api/middleware"
	"minimarket/internal/adapter/api/router"
	"minimarket/internal/adapter/repository"
	domainrepo "minimarket/internal/domain/repository"
	"minimarket/internal/infrastructure/events"
	"minimarket/internal/infrastructure/firebase"
	"minimarket/internal/infrastructure/ratelimit"
	"minimarket/internal/infrastructure/storage"
	"minimarket/internal/infrastructure/websocket"
	"minimarket/internal/platform/metrics"
	"minimarket/internal/usecase"
	"minimarket/pkg/config"
	"minimarket/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt, err := credentials(cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject, StorageBucket: cfg.StorageBucket}, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase: %v", err)
		os.Exit(1)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Error("Failed to initialize Firebase Auth: %v", err)
		os.Exit(1)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		logger.Error("Failed to create Firestore client: %v", err)
		os.Exit(1)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		logger.Error("Failed to initialize Cloud Storage: %v", err)
		os.Exit(1)
	}
	defer storageClient.Close()

	m := metrics.NewMetricsManager("minimarket")

	profileRepo := repository.NewFirestoreProfileRepository(firestoreClient)
	wishlistRepo := repository.NewFirestoreWishlistRepository(firestoreClient)
	var (
		productRepo domainrepo.ProductRepository = repository.NewFirestoreProductRepository(firestoreClient)
		reviewRepo  domainrepo.ReviewRepository  = repository.NewFirestoreReviewRepository(firestoreClient)
	)

	checks := map[string]handler.Checker{
		"firestore": handler.CheckFunc(func(ctx context.Context) error {
			_, err := firestoreClient.Collections(ctx).Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		}),
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis at %s unreachable, product cache disabled: %v", cfg.RedisAddr, err)
			redisClient.Close()
		} else {
			defer redisClient.Close()
			cache := repository.NewRedisProductCache(redisClient, cfg.ProductCacheTTL)
			productRepo = repository.NewCachedProductRepository(productRepo, cache)
			reviewRepo = repository.NewCachedReviewRepository(reviewRepo, cache)
			checks["redis"] = handler.CheckFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
			logger.Info("Product cache enabled at %s", cfg.RedisAddr)
		}
	}

	toolkit := firebase.NewIdentityToolkit(firebase.ToolkitConfig{
		APIKey:         cfg.FirebaseAPIKey,
		IdentityURL:    cfg.IdentityToolkitURL,
		SecureTokenURL: cfg.SecureTokenURL,
	})
	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, toolkit)

	hub := events.NewSessionHub(m)
	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	sessionEvents, release := hub.Subscribe(64)
	go func() {
		for event := range sessionEvents {
			wsManager.Deliver(event)
		}
	}()

	authUseCase := usecase.NewAuthUseCase(profileRepo, firebaseAuthClient, hub, cfg.PasswordResetRedirect())
	catalogUseCase := usecase.NewCatalogUseCase(productRepo, wishlistRepo, storageClient, m, cfg.PlaceholderImageURL)
	listingUseCase := usecase.NewListingUseCase(productRepo, storageClient, m, usecase.ListingOptions{
		MaxImageBytes:     cfg.MaxImageBytes,
		CompensateUploads: cfg.CompensateUploads,
	})
	detailUseCase := usecase.NewProductDetailUseCase(productRepo, profileRepo, wishlistRepo, cfg.PhoneCountryCode, cfg.PlaceholderImageURL)
	reviewUseCase := usecase.NewReviewUseCase(reviewRepo, m)
	wishlistUseCase := usecase.NewWishlistUseCase(wishlistRepo, m)
	profileUseCase := usecase.NewProfileUseCase(profileRepo, productRepo, storageClient, m)

	handler.Setup(authUseCase, catalogUseCase, listingUseCase, detailUseCase, reviewUseCase, wishlistUseCase, profileUseCase)
	handler.SetupHealthHandler(checks)

	allowedOrigin := cfg.PublicBaseURL
	if cfg.IsDevelopment() {
		allowedOrigin = ""
	}

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, allowedOrigin)

	authLimiter := ratelimit.NewRateLimiter(cfg.AuthRatePerMinute)
	authLimiter.StartCleanupRoutine(ctx, time.Minute, 10*time.Minute)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	if allowedOrigin == "" {
		e.Use(middleware.CORS())
	} else {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: []string{allowedOrigin}}))
	}
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxImageBytes)))
	e.Use(m.Middleware())

	e.Validator = api.NewValidator()

	router.Setup(e, authMiddleware, apimiddleware.RateLimit(authLimiter), wsHandler, m.Handler())

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	release()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func credentials(cfg *config.Config) (option.ClientOption, error) {
	if cfg.FirebaseCredentialsJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)), nil
	}

	path := cfg.FirebaseCredentialsPath
	if path == "" {
		path = "./firebase-service-account.json"
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.New("service account file does not exist: " + path)
	}

	logger.Info("Using Firebase service account from file: %s", path)
	return option.WithCredentialsFile(path), nil
}

// bodyLimit leaves room for the multipart envelope around a maximum-size image.
func bodyLimit(maxImage int64) string {
	return strconv.FormatInt(maxImage>>20+2, 10) + "M"
}
