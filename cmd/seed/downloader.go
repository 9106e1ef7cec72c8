package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/storage"
	"github.com/urfave/cli/v2"
)

func newStorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "storage-endpoint",
			Usage:    "S3-compatible endpoint holding the dataset exports",
			Required: true,
			EnvVars:  []string{"STORAGE_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:     "storage-access-key",
			Usage:    "Access key for the object storage",
			Required: true,
			EnvVars:  []string{"STORAGE_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:     "storage-secret-key",
			Usage:    "Secret key for the object storage",
			Required: true,
			EnvVars:  []string{"STORAGE_SECRET_KEY"},
		},
		&cli.StringFlag{
			Name:     "storage-bucket",
			Usage:    "Bucket holding the dataset exports",
			Required: true,
			EnvVars:  []string{"STORAGE_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "storage-region",
			Usage:   "Region of the object storage",
			EnvVars: []string{"STORAGE_REGION"},
		},
		&cli.BoolFlag{
			Name:    "storage-use-ssl",
			Usage:   "Use TLS when talking to the object storage",
			Value:   true,
			EnvVars: []string{"STORAGE_USE_SSL"},
		},
		&cli.StringFlag{
			Name:    "storage-prefix",
			Usage:   "Key prefix under which the CSV exports live",
			Value:   "exports",
			EnvVars: []string{"STORAGE_PREFIX"},
		},
	}
}

func runDownload(c *cli.Context) error {
	cfg := storage.S3Config{
		Endpoint:  c.String("storage-endpoint"),
		AccessKey: c.String("storage-access-key"),
		SecretKey: c.String("storage-secret-key"),
		Bucket:    c.String("storage-bucket"),
		Region:    c.String("storage-region"),
		UseSSL:    c.Bool("storage-use-ssl"),
	}

	client, err := storage.NewS3Client(cfg)
	if err != nil {
		return err
	}

	destDir := c.String("data-dir")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure download dir %s: %w", destDir, err)
	}

	paths, err := downloadExports(c.Context, client, c.String("storage-prefix"), destDir)
	if err != nil {
		return err
	}

	for _, path := range paths {
		log.Printf("Downloaded %s", path)
	}
	log.Printf("Downloaded %d dataset files to %s", len(paths), destDir)
	return nil
}

func downloadExports(ctx context.Context, client storage.ObjectStorage, prefix, destDir string) ([]string, error) {
	listPrefix := strings.TrimSpace(prefix)
	objects, err := client.ListObjects(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
	}

	var keys []string
	for _, obj := range objects {
		if strings.HasSuffix(strings.ToLower(obj.Key), ".csv") {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no CSV files found for prefix %s", listPrefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(destDir, objectRelativePath(listPrefix, key))
		if err := client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return filepath.Base(key)
	}
	return rel
}
