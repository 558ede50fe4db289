package research

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/martin/clipforge/internal/types"
)

// Service fans a topic out to all configured connectors and merges their
// results. The stage fails only when every connector fails.
type Service struct {
	connectors  []Connector
	perSource   time.Duration
	maxSnippets int
	verbose     bool
}

// NewService creates a research service over the given connectors.
func NewService(connectors []Connector, perSourceTimeout time.Duration, maxSnippets int, verbose bool) *Service {
	return &Service{
		connectors:  connectors,
		perSource:   perSourceTimeout,
		maxSnippets: maxSnippets,
		verbose:     verbose,
	}
}

// Research queries all connectors in parallel and returns the merged bundle.
// Individual connector failures are tolerated; if all fail, the returned
// error carries KindAllSourcesFailed.
func (s *Service) Research(ctx context.Context, topic string) (*types.ResearchBundle, error) {
	if len(s.connectors) == 0 {
		return nil, types.NewStageError(types.StageResearch, types.KindAllSourcesFailed, "no research connectors configured")
	}

	var mu sync.Mutex
	var all []types.Snippet
	var failures []string

	g, gctx := errgroup.WithContext(ctx)
	for _, conn := range s.connectors {
		conn := conn
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.perSource)
			defer cancel()

			snippets, err := conn.Search(cctx, topic)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if s.verbose {
					log.Printf("[RESEARCH] %s: %v", conn.Kind(), err)
				}
				failures = append(failures, string(conn.Kind())+": "+err.Error())
				// Connector failures are collected, not propagated, so the
				// group keeps the remaining sources running.
				return nil
			}
			all = append(all, snippets...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, types.WrapStageError(types.StageResearch, types.KindTransientExternal, err, "research fan-out interrupted")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(all) == 0 {
		return nil, types.NewStageError(types.StageResearch, types.KindAllSourcesFailed,
			"all research sources failed: %s", strings.Join(failures, "; "))
	}

	bundle := &types.ResearchBundle{
		Topic:    topic,
		Snippets: Merge(all, s.maxSnippets),
	}
	s.enrichDocuments(ctx, bundle)
	if s.verbose {
		log.Printf("[RESEARCH] %d snippets from %d/%d sources", len(bundle.Snippets), len(s.connectors)-len(failures), len(s.connectors))
	}
	return bundle, nil
}

// thinBodyLimit marks snippet bodies short enough to be worth replacing with
// the full document.
const thinBodyLimit = 400

// maxDocumentFetches bounds how many full documents one job pulls.
const maxDocumentFetches = 3

// enrichDocuments replaces thin snippet bodies with full document text where
// the originating connector offers the optional fetch capability. Failures
// leave the original body in place.
func (s *Service) enrichDocuments(ctx context.Context, bundle *types.ResearchBundle) {
	fetchers := make(map[types.SourceKind]DocumentFetcher)
	for _, conn := range s.connectors {
		if f, ok := conn.(DocumentFetcher); ok {
			fetchers[conn.Kind()] = f
		}
	}
	if len(fetchers) == 0 {
		return
	}

	fetched := 0
	for i, snip := range bundle.Snippets {
		if fetched >= maxDocumentFetches {
			return
		}
		if len(snip.Body) >= thinBodyLimit || snip.URL == "" {
			continue
		}
		fetcher, ok := fetchers[snip.Source]
		if !ok {
			continue
		}

		fctx, cancel := context.WithTimeout(ctx, s.perSource)
		text, err := fetcher.FetchDocument(fctx, snip)
		cancel()
		if err != nil {
			if s.verbose {
				log.Printf("[RESEARCH] document fetch for %q: %v", snip.Title, err)
			}
			continue
		}
		if len(text) > len(snip.Body) {
			bundle.Snippets[i].Body = truncateBody(text)
		}
		fetched++
	}
}
