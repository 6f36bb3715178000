package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBlobStore reads and writes blobs addressed as
// abs://<account>.blob.core.windows.net/<container>/<blob>. A SAS token
// in the query grants access on its own; without one the default Azure
// credential chain (environment, workload identity, managed identity,
// CLI) is used.
type AzureBlobStore struct {
	mu      sync.Mutex
	clients map[string]*azblob.Client
}

// NewAzureBlobStore returns a store for abs:// refs. Credentials are
// resolved on first use, not at construction.
func NewAzureBlobStore() *AzureBlobStore {
	return &AzureBlobStore{clients: map[string]*azblob.Client{}}
}

var _ Store = (*AzureBlobStore)(nil)

func (s *AzureBlobStore) Read(ctx context.Context, ref string) ([]byte, error) {
	loc, err := parseBlobRef(ref)
	if err != nil {
		return nil, err
	}

	client, err := s.client(loc)
	if err != nil {
		return nil, err
	}

	resp, err := client.DownloadStream(ctx, loc.container, loc.blob, nil)
	if err != nil {
		return nil, blobErr("downloading", ref, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", ref, err)
	}
	return data, nil
}

func (s *AzureBlobStore) Write(ctx context.Context, ref string, data []byte) error {
	loc, err := parseBlobRef(ref)
	if err != nil {
		return err
	}

	client, err := s.client(loc)
	if err != nil {
		return err
	}

	if _, err := client.UploadBuffer(ctx, loc.container, loc.blob, data, nil); err != nil {
		return blobErr("uploading", ref, err)
	}
	return nil
}

// blobLocation is one parsed abs:// ref.
type blobLocation struct {
	serviceURL string
	container  string
	blob       string
	sas        string
}

// parseBlobRef splits an abs:// ref into the account endpoint, the
// container, and the blob path, keeping any SAS token from the query.
func parseBlobRef(ref string) (blobLocation, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return blobLocation{}, fmt.Errorf("parsing %s: %w", ref, err)
	}
	if u.Host == "" {
		return blobLocation{}, fmt.Errorf("invalid blob ref %s: missing account host", ref)
	}

	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return blobLocation{}, fmt.Errorf("invalid blob ref %s: want abs://<account>/<container>/<blob>", ref)
	}

	loc := blobLocation{
		serviceURL: "https://" + u.Host,
		container:  container,
		blob:       blob,
	}
	if u.Query().Has("sig") {
		loc.sas = u.RawQuery
	}
	return loc, nil
}

// client returns a cached service client for the ref's account,
// creating one on first use.
func (s *AzureBlobStore) client(loc blobLocation) (*azblob.Client, error) {
	key := loc.serviceURL + "?" + loc.sas

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[key]; ok {
		return c, nil
	}

	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: 3},
		},
	}

	var (
		c   *azblob.Client
		err error
	)
	if loc.sas != "" {
		c, err = azblob.NewClientWithNoCredential(loc.serviceURL+"?"+loc.sas, opts)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("resolving Azure credentials: %w", credErr)
		}
		c, err = azblob.NewClient(loc.serviceURL, cred, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("creating blob client for %s: %w", loc.serviceURL, err)
	}

	s.clients[key] = c
	return c, nil
}

// blobErr maps service error codes onto portable sentinels.
func blobErr(verb, ref string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return fmt.Errorf("%s: %w", ref, fs.ErrNotExist)
	}
	return fmt.Errorf("%s %s: %w", verb, ref, err)
}
