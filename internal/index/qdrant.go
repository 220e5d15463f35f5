package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/pdfchat-server/internal/document"
)

// collectionPrefix namespaces the per-build collections this backend creates.
const collectionPrefix = "pdfchat_"

// upsertBatchSize bounds the number of points sent per upsert request.
const upsertBatchSize = 100

// QdrantBackend builds indexes backed by a Qdrant server. Each Build creates
// a fresh collection and drops the previous one after the new index is
// complete, so a replacement is never observable half-built. Collections are
// working state, not durable storage: a new upload discards them.
type QdrantBackend struct {
	client *qdrant.Client

	mu      sync.Mutex
	current string // collection backing the most recent build
}

// NewQdrantBackend connects to Qdrant and verifies health with retry,
// failing fast if the server is unreachable.
func NewQdrantBackend(host string, port int) (*QdrantBackend, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	b := &QdrantBackend{client: client}

	if err := b.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}
	return b, nil
}

// healthCheckWithRetry performs health checks with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (b *QdrantBackend) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return b.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (b *QdrantBackend) Health(ctx context.Context) error {
	result, err := b.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Close drops the current collection and closes the client connection.
func (b *QdrantBackend) Close() error {
	b.mu.Lock()
	current := b.current
	b.current = ""
	b.mu.Unlock()

	if current != "" {
		b.retire(current)
	}
	return b.client.Close()
}

// retire drops a superseded collection with its own deadline. The build
// context may already be near expiry when a slow build finishes, and a failed
// delete would leak the old generation in Qdrant.
func (b *QdrantBackend) retire(collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = b.client.DeleteCollection(ctx, collection)
}

// Build creates a fresh uuid-suffixed collection sized to the vectors,
// upserts every segment, then retires the previous generation.
func (b *QdrantBackend) Build(ctx context.Context, segments []document.Segment, vectors [][]float32) (Index, error) {
	if len(segments) != len(vectors) {
		return nil, fmt.Errorf("%w: %d segments, %d vectors", ErrEmbedding, len(segments), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, ErrNoSegments
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}

	name := collectionPrefix + uuid.New().String()
	err := b.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	if err := b.upsertSegments(ctx, name, segments, vectors); err != nil {
		// Abandon the half-built generation; the previous index stays live.
		_ = b.client.DeleteCollection(ctx, name)
		return nil, err
	}

	// New generation is complete; retire the old one.
	b.mu.Lock()
	previous := b.current
	b.current = name
	b.mu.Unlock()
	if previous != "" {
		b.retire(previous)
	}

	return &QdrantIndex{
		client:     b.client,
		collection: name,
		dimension:  dim,
		count:      len(segments),
	}, nil
}

// upsertSegments stores all points in batches with backoff retry.
func (b *QdrantBackend) upsertSegments(ctx context.Context, collection string, segments []document.Segment, vectors [][]float32) error {
	for i := 0; i < len(segments); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(segments))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for j := i; j < end; j++ {
			seg := segments[j]
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(seg.ID),
				Vectors: qdrant.NewVectors(vectors[j]...),
				Payload: qdrant.NewValueMap(map[string]any{
					"page":     seg.Page,
					"position": seg.Position,
					"text":     seg.Text,
				}),
			})
		}

		if err := b.upsertWithRetry(ctx, collection, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func (b *QdrantBackend) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// QdrantIndex serves similarity queries against one build's collection.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
	count      int
}

// Len reports the number of indexed segments.
func (idx *QdrantIndex) Len() int {
	return idx.count
}

// Search queries the collection and re-sorts ties by document position, which
// Qdrant does not guarantee on its own.
func (idx *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]ScoredSegment, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	points, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search segments: %w", err)
	}

	results := make([]ScoredSegment, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		results = append(results, ScoredSegment{
			Segment: document.Segment{
				ID:       point.Id.GetUuid(),
				Page:     int(payload["page"].GetIntegerValue()),
				Position: int(payload["position"].GetIntegerValue()),
				Text:     payload["text"].GetStringValue(),
			},
			Score: float64(point.Score),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].Segment.Position < results[b].Segment.Position
	})

	return results, nil
}
