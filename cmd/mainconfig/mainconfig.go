package mainconfig

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/stayline/concierge/internal/config"
	"github.com/stayline/concierge/internal/blob"
	"github.com/stayline/concierge/internal/pms"
	"github.com/stayline/concierge/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share
// the same wiring.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
}

// NewRedisClient builds the session-store Redis client from config.
func NewRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// NewPMSBackend selects the property-management backend from config:
// a direct database connection or the hosted web service.
func NewPMSBackend(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (pms.Backend, func(), error) {
	switch cfg.PMSBackend {
	case "webservice":
		backend, err := pms.NewWebserviceBackend(cfg.PMSBaseURL, cfg.PMSAPIKey, cfg.PMSTimeout, cfg.ExtraGuestFee, logger)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {}, nil
	case "postgres", "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("mainconfig: connect database: %w", err)
		}
		return pms.NewPostgresBackend(pool, cfg.ExtraGuestFee, logger), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("mainconfig: unknown PMS backend %q", cfg.PMSBackend)
	}
}

// NewBlobStore picks S3 when a bucket is configured, local disk otherwise.
func NewBlobStore(ctx context.Context, cfg *appconfig.Config) (blob.Store, error) {
	if cfg.RAGS3Bucket != "" {
		awsCfg, err := LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("mainconfig: load AWS config: %w", err)
		}
		return blob.NewS3Store(s3.NewFromConfig(awsCfg), cfg.RAGS3Bucket, "concierge")
	}
	return blob.NewFilesystemStore(cfg.RAGDataDir)
}
