package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contratos/internal/cache"
	"contratos/internal/clients"
	"contratos/internal/db"
	"contratos/internal/mailer"
	"contratos/internal/server"
	"contratos/internal/storage"
	"contratos/internal/store"
	"contratos/internal/workflow"
	"contratos/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func newStores(pool *pgxpool.Pool) workflow.Stores {
	return workflow.Stores{
		Contracts:     store.NewContractRepository(pool),
		Members:       store.NewMemberRepository(pool),
		Requirements:  store.NewRequiredDocumentRepository(pool),
		Documents:     store.NewMemberDocumentRepository(pool),
		Extras:        store.NewExtraDocumentRepository(pool),
		Extensions:    store.NewExtensionRepository(pool),
		Projects:      store.NewProjectRepository(pool),
		Organizations: store.NewOrganizationRepository(pool),
		Users:         store.NewUserRepository(pool),
		Templates:     store.NewTemplateRepository(pool),
	}
}

func newObjectStore(config *types.Config, awsConfig aws.Config) storage.ObjectStore {
	if config.StorageBackend == "s3" {
		return storage.NewS3Storage(awsConfig, config.S3Endpoint)
	}
	return storage.NewSupabaseStorage(config.SupabaseProjectID, config.SupabaseAPIKey)
}

// newMemberCache prefers Redis and falls back to the in-process cache when
// REDIS_ADDR is unset or unreachable.
func newMemberCache(ctx context.Context, config *types.Config, logger *logrus.Logger) (cache.MemberCache, func()) {
	ttl := time.Duration(config.MemberCacheTTLSec) * time.Second
	if config.RedisAddr == "" {
		return cache.NewMemoryCache(ttl), func() {}
	}

	redisCache := cache.NewRedisCache(config.RedisAddr, config.RedisPassword, ttl)
	if err := redisCache.Ping(ctx); err != nil {
		logger.WithError(err).Warn("redis unreachable, using in-memory member cache")
		_ = redisCache.Close()
		return cache.NewMemoryCache(ttl), func() {}
	}

	return redisCache, func() { _ = redisCache.Close() }
}

// newClients wires only the outbound services that are configured.
func newClients(ctx context.Context, config *types.Config, logger *logrus.Logger) workflow.Clients {
	var c workflow.Clients

	if config.BackgroundCheckURL != "" {
		c.Background = clients.NewBackgroundCheckClient(config.BackgroundCheckURL, config.BackgroundCheckAPIKey)
	}
	if config.ContractGeneratorURL != "" {
		c.Generator = clients.NewContractGenerator(config.ContractGeneratorURL)
	}
	if config.DocumentVerifierURL != "" {
		c.Verifier = clients.NewDocumentVerifier(config.DocumentVerifierURL)
	}
	if config.GoogleCredentialsFile != "" {
		docsClient, err := clients.NewDocsClient(ctx, config.GoogleCredentialsFile)
		if err != nil {
			logger.WithError(err).Warn("google docs disabled")
		} else {
			c.Stamper = docsClient
		}
	}

	logger.WithFields(logrus.Fields{
		"background_check": c.Background != nil,
		"generator":        c.Generator != nil,
		"verifier":         c.Verifier != nil,
		"docs":             c.Stamper != nil,
	}).Info("outbound services")

	return c
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if config.Environment == "development" {
		logger.SetLevel(logrus.DebugLevel)
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	stores := newStores(pool)

	memberCache, closeCache := newMemberCache(ctx, config, logger)
	defer closeCache()

	notifier, err := mailer.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	wf := workflow.New(
		config,
		logger,
		stores,
		newObjectStore(config, awsConfig),
		memberCache,
		newClients(ctx, config, logger),
		notifier,
	)

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.CognitoIssuerURL)

	err = jwkCache.Register(context.Background(), jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register cognito jwks with cache: %w", err)
	}

	srv := server.New(
		config,
		logger,
		wf,
		store.NewUserRepository(pool),
		cognitoClient,
		jwkCache,
		jwksURL,
	)

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
