package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sitegen/internal/gateway/config"
	artifactrepo "sitegen/internal/gateway/repository/artifact"
	projectrepo "sitegen/internal/gateway/repository/project"
)

type gatewayStores struct {
	project  projectrepo.Store
	artifact artifactrepo.Store
	closers  []func() error
}

func initStores(cfg *config.Config, log *zap.Logger) (*gatewayStores, error) {
	stores := &gatewayStores{}

	origin, label, err := openProjectOrigin(cfg.Store, stores)
	if err != nil {
		return nil, err
	}
	cached, err := projectrepo.NewCachedStore(origin, cfg.Store.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to init project cache: %w", err)
	}
	stores.project = cached
	log.Info("project store", zap.String("backend", label), zap.Int("cache_size", cfg.Store.CacheSize))

	artifactStore, err := chooseArtifactStore(cfg, artifactrepo.NewMemoryStore(), "in-memory", log)
	if err != nil {
		stores.close()
		return nil, err
	}
	stores.artifact = artifactStore
	return stores, nil
}

func openProjectOrigin(cfg config.StoreConfig, stores *gatewayStores) (projectrepo.Store, string, error) {
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		s, err := projectrepo.OpenPostgres(dsn)
		if err != nil {
			return nil, "", err
		}
		stores.closers = append(stores.closers, s.Close)
		return s, "postgres", nil
	}
	if path := strings.TrimSpace(cfg.SQLitePath); path != "" {
		s, err := projectrepo.OpenSQLite(path)
		if err != nil {
			return nil, "", err
		}
		stores.closers = append(stores.closers, s.Close)
		return s, "sqlite", nil
	}
	return projectrepo.NewMemoryStore(), "in-memory", nil
}

func newArtifactS3Store(cfg *config.Config, log *zap.Logger) (artifactrepo.Store, error) {
	s3Cfg := artifactrepo.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	}
	s3Store, err := artifactrepo.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
	}
	log.Info("artifact store: s3", zap.String("bucket", s3Cfg.Bucket), zap.String("endpoint", s3Cfg.Endpoint))
	return s3Store, nil
}

func chooseArtifactStore(cfg *config.Config, fallback artifactrepo.Store, fallbackLabel string, log *zap.Logger) (artifactrepo.Store, error) {
	var origin artifactrepo.Store
	if cfg.Artifact.CanUseS3() {
		s3Store, err := newArtifactS3Store(cfg, log)
		if err != nil {
			return nil, err
		}
		origin = s3Store
	} else {
		if cfg.Artifact.Enabled {
			log.Warn("artifact store: s3 config incomplete, using fallback", zap.String("fallback", fallbackLabel))
		}
		origin = fallback
	}
	return artifactrepo.NewCachedStore(origin, cfg.Store.CacheSize)
}

func (s *gatewayStores) close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
