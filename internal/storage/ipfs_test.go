package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorchain/compliance-node/internal/locator"
)

// fakeIPFSNode implements the slice of the IPFS HTTP API the backend talks to:
// version, files/stat, files/write, files/read and pin/add.
type fakeIPFSNode struct {
	mu         sync.Mutex
	files      map[string][]byte
	pins       []string
	writes     int
	lastAuth   string
	failWrites bool
}

func newFakeIPFSNode() *fakeIPFSNode {
	return &fakeIPFSNode{files: map[string][]byte{}}
}

func (n *fakeIPFSNode) cidFor(path string) string {
	return "Qmfake" + strings.ReplaceAll(path, "/", "")[:16]
}

func (n *fakeIPFSNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastAuth = r.Header.Get("Authorization")

	arg := r.URL.Query().Get("arg")
	switch strings.TrimPrefix(r.URL.Path, "/api/v0/") {
	case "version":
		// go-ipfs-api asks for the node version before every files/write
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Version":"0.24.0","Commit":"","Repo":"15"}`)
	case "files/stat":
		content, found := n.files[arg]
		if !found {
			writeIPFSError(w, "files/stat: file does not exist")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"Hash":%q,"Size":%d,"Type":"file"}`, n.cidFor(arg), len(content))
	case "files/write":
		if n.failWrites {
			writeIPFSError(w, "node is out of space")
			return
		}
		mr, err := r.MultipartReader()
		if err != nil {
			writeIPFSError(w, "expected multipart body")
			return
		}
		part, err := mr.NextPart()
		if err != nil {
			writeIPFSError(w, "missing file part")
			return
		}
		content, err := io.ReadAll(part)
		if err != nil {
			writeIPFSError(w, "cannot read file part")
			return
		}
		n.files[arg] = content
		n.writes++
	case "files/read":
		content, found := n.files[arg]
		if !found {
			writeIPFSError(w, "files/read: file does not exist")
			return
		}
		_, _ = w.Write(content)
	case "pin/add":
		n.pins = append(n.pins, arg)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"Pins":[%q]}`, arg)
	default:
		writeIPFSError(w, "unknown command "+r.URL.Path)
	}
}

func writeIPFSError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `{"Message":%q,"Code":0,"Type":"error"}`, msg)
}

func newTestIPFS(t *testing.T) (*IPFSBackend, *fakeIPFSNode) {
	t.Helper()
	node := newFakeIPFSNode()
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)
	return NewIPFSBackend(server.URL, "https://gateway.example", "/compliance", "pinning-token", 5*time.Second), node
}

func TestIPFSBackendPutGet(t *testing.T) {
	ctx := context.Background()
	backend, node := newTestIPFS(t)
	content := []byte("notarized shareholder list")

	loc, err := backend.Put(ctx, content)
	require.NoError(t, err)
	assert.Equal(t, locator.Address(content), loc)
	assert.Equal(t, "Bearer pinning-token", node.lastAuth)
	assert.Len(t, node.pins, 1)

	got, err := backend.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestIPFSBackendPutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend, node := newTestIPFS(t)
	content := []byte("annual report")

	loc1, err := backend.Put(ctx, content)
	require.NoError(t, err)
	loc2, err := backend.Put(ctx, content)
	require.NoError(t, err)

	assert.Equal(t, loc1, loc2)
	// the second put short circuits on the stat, nothing is rewritten
	assert.Equal(t, 1, node.writes)
}

func TestIPFSBackendGetNotFound(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestIPFS(t)

	_, err := backend.Get(ctx, locator.Address([]byte("never written")))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrBackendUnavailable)
}

func TestIPFSBackendURLFor(t *testing.T) {
	ctx := context.Background()
	backend, node := newTestIPFS(t)

	loc, err := backend.Put(ctx, []byte("collateral valuation"))
	require.NoError(t, err)

	url, err := backend.URLFor(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/ipfs/"+node.cidFor("/compliance/"+loc), url)

	_, err = backend.URLFor(ctx, locator.Address([]byte("missing")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIPFSBackendWriteFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	backend, node := newTestIPFS(t)
	node.failWrites = true

	_, err := backend.Put(ctx, []byte("anything"))
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestIPFSBackendNodeUnreachable(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(newFakeIPFSNode())
	url := server.URL
	server.Close()

	backend := NewIPFSBackend(url, "https://gateway.example", "/compliance", "", time.Second)
	_, err := backend.Put(ctx, []byte("anything"))
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}
