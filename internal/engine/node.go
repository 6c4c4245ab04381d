// Package engine boots the embedded search node from a frozen settings
// map.
//
// The node is the consumer side of the settings contract: it creates the
// resolved directories, opens the primary index under path.data, applies
// writes in periodic batches per index.refresh_interval, registers the
// native update scripts, answers identity requests on the transport port,
// exports monitoring samples when configured, and publishes a ready
// marker in path.work for the supervisor tooling. The engine's own HTTP
// interface is never started; the transport bind is the only network
// surface.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/gobwas/glob"

	"github.com/mvp-joe/spyglass/internal/launcher"
	"github.com/mvp-joe/spyglass/internal/search"
)

const (
	primaryIndexName = "main"

	// rawField stores the document source verbatim for script updates.
	rawField = "_raw"

	// maxBatchSize applies a pending batch early, before the refresh tick.
	maxBatchSize = 1000
)

// Node is a running search node.
type Node struct {
	settings *search.Settings

	dataDir   string
	sharedDir string

	autoCreate glob.Glob
	scripts    *Registry
	listener   net.Listener

	mu      sync.Mutex
	index   bleve.Index
	extra   map[string]bleve.Index
	pending *bleve.Batch
	closed  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Boot starts a node from resolved settings: directories first, then the
// primary index, scripts, transport, background loops, and finally the
// ready marker. A boot error leaves nothing running.
func Boot(settings *search.Settings) (*Node, error) {
	dataDir := settings.Get(search.KeyPathData)
	sharedDir := settings.Get(search.KeyPathWork)
	logDir := settings.Get(search.KeyPathLogs)
	if dataDir == "" || sharedDir == "" || logDir == "" {
		return nil, errors.New("settings are missing the filesystem layout")
	}
	for _, dir := range []string{dataDir, sharedDir, logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	refresh, err := time.ParseDuration(settings.Get(search.KeyRefreshInterval))
	if err != nil {
		return nil, fmt.Errorf("failed to parse refresh interval: %w", err)
	}

	pattern := settings.Get(search.KeyAutoCreate)
	autoCreate, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile auto-create pattern %q: %w", pattern, err)
	}

	index, err := openIndex(filepath.Join(dataDir, primaryIndexName+".bleve"))
	if err != nil {
		return nil, err
	}

	node := &Node{
		settings:   settings,
		dataDir:    dataDir,
		sharedDir:  sharedDir,
		autoCreate: autoCreate,
		scripts:    NewRegistry(),
		index:      index,
		extra:      make(map[string]bleve.Index),
	}
	node.registerScripts()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", settings.Port()))
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to bind transport port %d: %w", settings.Port(), err)
	}
	node.listener = listener
	log.Printf("search node %s listening on %s", settings.NodeName(), listener.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	node.cancel = cancel
	node.wg.Add(2)
	go node.refreshLoop(ctx, refresh)
	go node.serveTransport()

	if settings.Has(search.KeyMonitorHosts) {
		node.startExporter(ctx)
	}

	if err := node.writeReadyMarker(); err != nil {
		node.Close()
		return nil, err
	}
	return node, nil
}

// Addr returns the transport listener address.
func (n *Node) Addr() net.Addr {
	return n.listener.Addr()
}

// Index queues doc for the next refresh. The write becomes visible when
// the periodic refresh applies the pending batch, the batch hits its size
// bound, or Flush is called.
func (n *Node) Index(id string, doc map[string]interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	stored := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored[rawField] = string(raw)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errors.New("node is closed")
	}
	if n.pending == nil {
		n.pending = n.index.NewBatch()
	}
	if err := n.pending.Index(id, stored); err != nil {
		return fmt.Errorf("failed to add document %s to batch: %w", id, err)
	}
	if n.pending.Size() >= maxBatchSize {
		return n.applyPendingLocked()
	}
	return nil
}

// Delete queues removal of id, applied with the same batching as Index.
func (n *Node) Delete(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errors.New("node is closed")
	}
	if n.pending == nil {
		n.pending = n.index.NewBatch()
	}
	n.pending.Delete(id)
	return nil
}

// Flush applies the pending batch now. Tests and shutdown use it; normal
// operation relies on the refresh loop.
func (n *Node) Flush() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.applyPendingLocked()
}

func (n *Node) applyPendingLocked() error {
	if n.pending == nil || n.pending.Size() == 0 {
		return nil
	}
	batch := n.pending
	n.pending = nil
	if err := n.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply batch: %w", err)
	}
	return nil
}

// Document returns the stored source of id. Only applied writes are
// visible; Flush first when reading back a fresh write.
func (n *Node) Document(id string) (map[string]interface{}, error) {
	q := bleve.NewDocIDQuery([]string{id})
	req := bleve.NewSearchRequestOptions(q, 1, 0, false)
	req.Fields = []string{rawField}

	res, err := n.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return nil, fmt.Errorf("document %s not found", id)
	}

	raw, _ := res.Hits[0].Fields[rawField].(string)
	var source map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &source); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return source, nil
}

// Search runs a query-string search over the primary index.
func (n *Node) Search(queryStr string, limit int) (*bleve.SearchResult, error) {
	q := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	return n.index.Search(req)
}

// DocCount returns the number of applied documents in the primary index.
func (n *Node) DocCount() (uint64, error) {
	return n.index.DocCount()
}

func (n *Node) refreshLoop(ctx context.Context, interval time.Duration) {
	defer n.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := n.Flush(); err != nil {
				log.Printf("WARN: refresh failed: %v", err)
			}
		}
	}
}

func (n *Node) writeReadyMarker() error {
	path := launcher.ReadyMarkerPath(n.sharedDir)
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write ready marker: %w", err)
	}
	return nil
}

func (n *Node) removeReadyMarker() {
	err := os.Remove(launcher.ReadyMarkerPath(n.sharedDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: failed to remove ready marker: %v", err)
	}
}

// Close stops the node: the ready marker goes first so the supervisor
// stops seeing a serving node, then the loops and listener, then a final
// flush before the indices close. Safe to call more than once.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.removeReadyMarker()
	n.cancel()
	n.listener.Close()
	n.wg.Wait()

	err := n.Flush()

	n.mu.Lock()
	defer n.mu.Unlock()
	for name, index := range n.extra {
		if cerr := index.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close index %s: %w", name, cerr)
		}
	}
	if cerr := n.index.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close primary index: %w", cerr)
	}
	return err
}
