package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"guildsmith/core/storage"
	"guildsmith/feature/layout/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archive exports stored layout versions to object storage and restores
// them as new versions. Objects live under <guild>/<version>.json.
type Archive struct {
	client storage.Client
	bucket string
	store  *Store
	log    *zap.Logger
}

// NewArchive creates a layout archive over the given storage client.
func NewArchive(client storage.Client, bucket string, store *Store, log *zap.Logger) *Archive {
	return &Archive{client: client, bucket: bucket, store: store, log: log}
}

func (a *Archive) objectName(guildID string, version int) string {
	return path.Join(guildID, fmt.Sprintf("%d.json", version))
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("bucket create: %w", err)
	}
	return nil
}

// Export uploads one stored version. Version 0 exports the preferred
// (active or latest) layout.
func (a *Archive) Export(ctx context.Context, guildID string, version int) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	var row *models.LayoutRow
	var err error
	if version > 0 {
		_, row, err = a.store.LoadVersion(ctx, guildID, version)
	} else {
		_, row, err = a.store.Load(ctx, guildID)
	}
	if err != nil {
		return "", err
	}

	name := a.objectName(guildID, row.Version)
	payload := []byte(row.Payload)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("export layout v%d: %w", row.Version, err)
	}
	a.log.Info("Exported layout",
		zap.String("guild_id", guildID),
		zap.Int("version", row.Version),
		zap.String("object", name))
	return name, nil
}

// ExportAll uploads every stored version for a guild and returns the
// object names written.
func (a *Archive) ExportAll(ctx context.Context, guildID string) ([]string, error) {
	rows, err := a.store.Versions(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, row := range rows {
		name, err := a.Export(ctx, guildID, row.Version)
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Restore reads an archived version and saves it as a new stored version.
func (a *Archive) Restore(ctx context.Context, guildID string, version int, markActive bool) (int, error) {
	name := a.objectName(guildID, version)
	obj, err := a.client.GetObject(ctx, a.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("restore %s: %w", name, err)
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		return 0, fmt.Errorf("restore %s: %w", name, err)
	}

	var layout models.Layout
	if err := json.Unmarshal(payload, &layout); err != nil {
		return 0, fmt.Errorf("restore %s: %w", name, err)
	}

	newVersion, noChange, err := a.store.Save(ctx, guildID, &layout, markActive)
	if err != nil {
		return 0, err
	}
	if noChange {
		a.log.Info("Restore matched current layout",
			zap.String("guild_id", guildID),
			zap.Int("version", newVersion))
		return newVersion, nil
	}
	a.log.Info("Restored layout",
		zap.String("guild_id", guildID),
		zap.Int("archived_version", version),
		zap.Int("new_version", newVersion))
	return newVersion, nil
}

// ListArchived returns the archived version numbers for a guild, ascending.
func (a *Archive) ListArchived(ctx context.Context, guildID string) ([]int, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}

	var versions []int
	for info := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    guildID + "/",
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list archive: %w", info.Err)
		}
		base := strings.TrimSuffix(path.Base(info.Key), ".json")
		v, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}
