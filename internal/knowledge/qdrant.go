package knowledge

// #region imports
import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/danielpatrickdp/mathpilot/internal/llm"
)

// #endregion

// #region config

// QdrantConfig holds the connection settings for the vector index.
type QdrantConfig struct {
	URL        string // "http://localhost:6333" or "https://host:6334"
	APIKey     string
	Collection string
	Dims       uint64
}

// parseQdrantURL extracts host, port, and TLS flag from a Qdrant URL.
// The REST port 6333 is mapped to the gRPC port 6334.
func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("knowledge: invalid qdrant URL: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("knowledge: invalid port in qdrant URL: %q", portStr)
		}
		if p == 6333 {
			port = 6334
		} else {
			port = p
		}
	} else {
		port = 6334
	}

	return host, port, useTLS, nil
}

// #endregion

// #region qdrant-store

// QdrantStore is a Store backed by a Qdrant collection. Texts are embedded
// through the injected Embedder on both write and read.
type QdrantStore struct {
	client     *qdrant.Client
	embedder   llm.Embedder
	collection string
	dims       uint64
}

// NewQdrantStore connects to the Qdrant server via gRPC.
func NewQdrantStore(cfg QdrantConfig, embedder llm.Embedder) (*QdrantStore, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: connect to qdrant at %s:%d: %w", host, port, err)
	}

	return &QdrantStore{
		client:     client,
		embedder:   embedder,
		collection: cfg.Collection,
		dims:       cfg.Dims,
	}, nil
}

// EnsureCollection creates the collection if it does not already exist.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("knowledge: check collection exists: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dims,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("knowledge: create collection %q: %w", s.collection, err)
	}
	log.Printf("[KB] created collection %q dims=%d", s.collection, s.dims)
	return nil
}

// Add embeds and upserts documents. A missing document ID gets a fresh UUID.
func (s *QdrantStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Text)
		if err != nil {
			return fmt.Errorf("knowledge: embed doc %q: %w", d.ID, err)
		}

		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		payload := map[string]any{"text": d.Text}
		for k, v := range d.Metadata {
			payload[k] = v
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(id)),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("knowledge: upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query embeds the text and returns the k nearest documents.
func (s *QdrantStore) Query(ctx context.Context, text string, k int) ([]Scored, error) {
	if k <= 0 {
		k = 1
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("knowledge: embed query: %w", err)
	}

	limit := uint64(k)
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: qdrant query: %w", err)
	}

	hits := make([]Scored, 0, len(scored))
	for _, sp := range scored {
		doc := Document{ID: sp.Id.GetUuid(), Metadata: map[string]string{}}
		for key, val := range sp.Payload {
			if key == "text" {
				doc.Text = val.GetStringValue()
				continue
			}
			if str := val.GetStringValue(); str != "" {
				doc.Metadata[key] = str
			}
		}
		hits = append(hits, Scored{Document: doc, Score: sp.Score})
	}
	return hits, nil
}

// Close shuts down the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID maps an arbitrary document ID onto a Qdrant-acceptable UUID.
// IDs that already parse as UUIDs pass through unchanged.
func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

// #endregion
