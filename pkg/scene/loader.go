package scene

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fortio.org/log"
	"github.com/taigrr/roomview/pkg/models"
)

// AssetLoadError reports a model that could not be loaded. The scene keeps
// rendering without it.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("load asset %s: %v", e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// LoadFunc reads a model from disk.
type LoadFunc func(ctx context.Context, path string) (*models.Model, error)

type loadResult struct {
	path  string
	model *models.Model
	err   error
	took  time.Duration
}

// Loader loads models in the background and hands them to the render loop.
// Load never blocks; Poll is called from the render goroutine and is the
// only place the scene is mutated.
type Loader struct {
	load    LoadFunc
	results chan loadResult

	mu      sync.Mutex
	pending int
}

// NewLoader creates a loader. A nil load function reads glTF files.
func NewLoader(load LoadFunc) *Loader {
	if load == nil {
		load = models.Load
	}
	return &Loader{
		load:    load,
		results: make(chan loadResult, 4),
	}
}

// Load starts loading path in a new goroutine. Canceling ctx abandons the
// load; nothing is delivered in that case.
func (l *Loader) Load(ctx context.Context, path string) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	go func() {
		start := time.Now()
		model, err := l.load(ctx, path)
		res := loadResult{path: path, model: model, err: err, took: time.Since(start)}
		select {
		case l.results <- res:
		case <-ctx.Done():
			l.mu.Lock()
			l.pending--
			l.mu.Unlock()
		}
	}()
}

// Pending returns the number of loads not yet delivered by Poll.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Poll attaches at most one finished model to s without blocking. It
// returns the attached subtree, or nil when nothing was ready. A failed
// load is returned as *AssetLoadError.
func (l *Loader) Poll(s *Scene) (*Node, error) {
	var res loadResult
	select {
	case res = <-l.results:
	default:
		return nil, nil
	}

	l.mu.Lock()
	l.pending--
	l.mu.Unlock()

	if res.err == nil && res.model == nil {
		res.err = fmt.Errorf("loader returned no model")
	}
	if res.err != nil {
		return nil, &AssetLoadError{Path: res.path, Err: res.err}
	}

	root, err := FromModel(res.model)
	if err != nil {
		return nil, &AssetLoadError{Path: res.path, Err: err}
	}
	meshes := EnableShadows(root)
	if err := s.Add(root); err != nil {
		return nil, &AssetLoadError{Path: res.path, Err: err}
	}

	log.S(log.Info, "Model loaded",
		log.Str("path", res.path),
		log.Attr("meshes", meshes),
		log.Attr("triangles", res.model.TriangleCount()),
		log.Str("took", res.took.Round(time.Millisecond).String()))
	return root, nil
}

// EnableShadows sets CastShadow and ReceiveShadow on every mesh node of
// the subtree rooted at n and returns how many were flagged.
func EnableShadows(n *Node) int {
	count := 0
	n.Traverse(func(c *Node) bool {
		if c.Mesh != nil {
			c.CastShadow = true
			c.ReceiveShadow = true
			count++
		}
		return true
	})
	return count
}
