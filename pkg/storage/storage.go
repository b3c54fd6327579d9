// Package storage provides whole-object blob operations with an Azure Blob
// Storage implementation. Pipeline artifacts (snapshots, fingerprints,
// analyses, score history, jobs) are stored as JSON blobs under deterministic
// keys; all writes are last-writer-wins overwrites.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/opendocket/docket/pkg/lifecycle"
)

// MaxListCap bounds a single List call regardless of configuration.
const MaxListCap int32 = 500

// System manages blob operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the storage container.
	Start(lc *lifecycle.Coordinator) error
	// Put streams data to the blob at key with the given content type,
	// overwriting any existing blob.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Get returns a stream for the blob at key. The caller must close the
	// reader. Returns ErrNotFound if the blob does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns up to max blob keys under prefix, in lexicographic order.
	List(ctx context.Context, prefix string, max int32) ([]string, error)
}

type azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New creates a storage system from the given configuration. The Azure client
// is constructed eagerly but no connection is established until Start runs.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage"),
	}, nil
}

// newClient prefers connection-string auth and falls back to the account URL
// with ambient credentials (managed identity, workload identity, az login).
func newClient(cfg *Config) (*azblob.Client, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: 3},
		},
	}

	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return client, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create storage credential: %w", err)
	}

	client, err := azblob.NewClient(cfg.AccountURL, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting storage system")

	lc.OnStartup(func() {
		_, err := a.client.CreateContainer(lc.Context(), a.container, nil)
		switch {
		case err == nil, bloberror.HasCode(err, bloberror.ContainerAlreadyExists):
			a.logger.Info("storage container ready", "container", a.container)
		default:
			a.logger.Error("storage container initialization failed", "error", err)
		}
	})

	return nil
}

func (a *azure) Put(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := a.client.UploadStream(ctx, a.container, key, reader, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

func (a *azure) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		return nil, mapBlobError("get blob", key, err)
	}
	return resp.Body, nil
}

func (a *azure) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if _, err := a.client.DeleteBlob(ctx, a.container, key, nil); err != nil {
		return mapBlobError("delete blob", key, err)
	}
	return nil
}

func (a *azure) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	_, err := a.blob(key).GetProperties(ctx, nil)
	switch {
	case err == nil:
		return true, nil
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("stat blob %s: %w", key, err)
	}
}

func (a *azure) List(ctx context.Context, prefix string, max int32) ([]string, error) {
	if max <= 0 || max > MaxListCap {
		max = MaxListCap
	}

	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	keys := make([]string, 0, max)
	for pager.More() && int32(len(keys)) < max {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs %s: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			keys = append(keys, *item.Name)
			if int32(len(keys)) >= max {
				break
			}
		}
	}

	return keys, nil
}

// blob returns a single-blob client for property and metadata operations.
func (a *azure) blob(key string) *blob.Client {
	return a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
}

// mapBlobError folds the service's not-found code into ErrNotFound and wraps
// everything else with the failing operation and key.
func mapBlobError(op, key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

// PutJSON marshals v and writes it to key with an application/json content type.
func PutJSON(ctx context.Context, s System, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, bytes.NewReader(data), "application/json")
}

// GetJSON reads the blob at key and unmarshals it into out.
// Returns ErrNotFound when the blob does not exist.
func GetJSON(ctx context.Context, s System, key string, out any) error {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// ParseMaxResults parses a raw list-size query value, clamping to limit.
// An empty value yields limit; a non-positive or malformed value is an error.
func ParseMaxResults(raw string, limit int32) (int32, error) {
	if limit <= 0 || limit > MaxListCap {
		limit = MaxListCap
	}
	if raw == "" {
		return limit, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid max_results %q", raw)
	}
	return min(int32(n), limit), nil
}

func validateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case strings.Contains(key, ".."):
		return ErrInvalidKey
	}
	return nil
}
