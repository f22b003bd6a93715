package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/core/ports"
	"github.com/factorchain/compliance-node/internal/locator"
	"github.com/factorchain/compliance-node/internal/log"
)

// IPFSBackend stores content on a remote IPFS node. Bytes live under an MFS
// path derived from the locator, so retrieval never depends on the node's own
// CID for the content, and the node is additionally asked to pin every write.
type IPFSBackend struct {
	sh         *shell.Shell
	gatewayURL string
	mfsRoot    string
}

type authTransport struct {
	token string
	base  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// NewIPFSBackend returns a backend connected to the IPFS node at nodeURL.
// authToken may be empty when the node does not require credentials. timeout
// caps every single call against the node.
func NewIPFSBackend(nodeURL, gatewayURL, mfsRoot, authToken string, timeout time.Duration) *IPFSBackend {
	client := &http.Client{
		Timeout:   timeout,
		Transport: &authTransport{token: authToken, base: http.DefaultTransport},
	}
	return &IPFSBackend{
		sh:         shell.NewShellWithClient(nodeURL, client),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		mfsRoot:    strings.TrimRight(mfsRoot, "/"),
	}
}

// Put writes content under its locator path and pins it. Writing the same
// bytes twice lands on the same path with the same content, so the operation
// is idempotent.
func (b *IPFSBackend) Put(ctx context.Context, content []byte) (string, error) {
	loc := locator.Address(content)
	if _, err := b.sh.FilesStat(ctx, b.path(loc)); err == nil {
		return loc, nil
	}
	err := b.sh.FilesWrite(ctx, b.path(loc), bytes.NewReader(content),
		shell.FilesWrite.Create(true), shell.FilesWrite.Parents(true), shell.FilesWrite.Truncate(true))
	if err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrBackendUnavailable, loc, err)
	}
	stat, err := b.sh.FilesStat(ctx, b.path(loc))
	if err != nil {
		return "", fmt.Errorf("%w: stat after write %s: %v", ErrBackendUnavailable, loc, err)
	}
	if err := b.sh.Pin(stat.Hash); err != nil {
		// The write succeeded, content is retrievable. Only durability across GC
		// is reduced, so log and keep going.
		log.Warn(ctx, "could not pin content", "locator", loc, "cid", stat.Hash, "err", err)
	}
	return loc, nil
}

// PutManifest stores the canonical serialized form of the dossier
func (b *IPFSBackend) PutManifest(ctx context.Context, dossier *domain.BusinessDossier) (string, error) {
	raw, err := dossier.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("serializing dossier: %w", err)
	}
	return b.Put(ctx, raw)
}

// Get returns the bytes stored under locator
func (b *IPFSBackend) Get(ctx context.Context, loc string) ([]byte, error) {
	r, err := b.sh.FilesRead(ctx, b.path(loc))
	if err != nil {
		if isMFSNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrBackendUnavailable, loc, err)
	}
	defer func() { _ = r.Close() }()
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrBackendUnavailable, loc, err)
	}
	return content, nil
}

// URLFor returns a public gateway URL for the content behind locator
func (b *IPFSBackend) URLFor(ctx context.Context, loc string) (string, error) {
	stat, err := b.sh.FilesStat(ctx, b.path(loc))
	if err != nil {
		if isMFSNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, loc)
		}
		return "", fmt.Errorf("%w: stat %s: %v", ErrBackendUnavailable, loc, err)
	}
	return b.gatewayURL + "/ipfs/" + stat.Hash, nil
}

func (b *IPFSBackend) path(loc string) string {
	return b.mfsRoot + "/" + loc
}

// isMFSNotFound tells a missing MFS entry apart from a node failure. The files
// API reports both through *shell.Error, only the message differs.
func isMFSNotFound(err error) bool {
	var ipfsErr *shell.Error
	if errors.As(err, &ipfsErr) {
		return strings.Contains(ipfsErr.Message, "does not exist")
	}
	return false
}

var _ ports.StorageBackend = (*IPFSBackend)(nil)
