package service

import (
	"context"
	"learnpath_backend/internal/config"
	"learnpath_backend/pkg/logger"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ArtifactService 启动时从对象存储拉取模型工件（权重、标准化参数、元信息）
// 到本地目录。未配置 MinIO 时直接使用本地目录。拉取失败不阻塞启动，
// 预测引擎会按现有文件决定是否降级。
type ArtifactService struct {
	cfg config.ModelConfig
}

func NewArtifactService(cfg config.ModelConfig) *ArtifactService {
	return &ArtifactService{cfg: cfg}
}

var artifactFiles = []string{metadataFile, scalerFile, networkFile}

func (s *ArtifactService) Sync(ctx context.Context) error {
	if s.cfg.MinioEndpoint == "" {
		return nil
	}

	client, err := minio.New(s.cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.cfg.MinioAccessID, s.cfg.MinioSecret, ""),
		Secure: s.cfg.MinioUseSSL,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.ArtifactDir, 0755); err != nil {
		return err
	}

	for _, name := range artifactFiles {
		objectKey := path.Join(s.cfg.MinioKeyPrefix, name)
		localPath := filepath.Join(s.cfg.ArtifactDir, name)
		if err := client.FGetObject(ctx, s.cfg.MinioBucket, objectKey, localPath, minio.GetObjectOptions{}); err != nil {
			logger.Log.Warn("Failed to fetch model artifact",
				zap.String("object", objectKey),
				zap.Error(err))
			return err
		}
		logger.Log.Info("Fetched model artifact", zap.String("object", objectKey))
	}

	return nil
}
