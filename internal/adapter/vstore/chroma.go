package vstore

import (
	"context"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"docsync/internal/port"
)

// ChromaStore implements port.VectorStore on a Chroma collection via the v2
// HTTP API. Embedding happens upstream in the engine; vectors are passed
// through as-is.
type ChromaStore struct {
	client     chromago.Client
	collection chromago.Collection
}

// NewChromaStore connects to the Chroma server at url and gets or creates
// the named collection. token may be empty for unauthenticated servers.
func NewChromaStore(ctx context.Context, url, token, collectionName string) (*ChromaStore, error) {
	opts := []chromago.ClientOption{chromago.WithBaseURL(url)}
	if token != "" {
		opts = append(opts, chromago.WithAuth(chromago.NewTokenAuthCredentialsProvider(token, chromago.AuthorizationTokenHeader)))
	}

	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(ctx, collectionName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get or create collection %q: %w", collectionName, err)
	}

	return &ChromaStore{client: client, collection: collection}, nil
}

func (s *ChromaStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, len(items))
	texts := make([]string, len(items))
	embs := make([]embeddings.Embedding, len(items))
	metas := make([]chromago.DocumentMetadata, len(items))
	for i, item := range items {
		ids[i] = chromago.DocumentID(item.ID)
		texts[i] = item.Text
		embs[i] = embeddings.NewEmbeddingFromFloat32(item.Vector)

		attrs := make([]*chromago.MetaAttribute, 0, len(item.Metadata))
		for k, v := range item.Metadata {
			attrs = append(attrs, chromago.NewStringAttribute(k, v))
		}
		metas[i] = chromago.NewDocumentMetadata(attrs...)
	}

	err := s.collection.Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("chroma upsert failed: %w", err)
	}
	return nil
}

func (s *ChromaStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	docIDs := make([]chromago.DocumentID, len(ids))
	for i, id := range ids {
		docIDs[i] = chromago.DocumentID(id)
	}
	if err := s.collection.Delete(ctx, chromago.WithIDsDelete(docIDs...)); err != nil {
		return fmt.Errorf("chroma delete failed: %w", err)
	}
	return nil
}

func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection: %w", err)
	}
	return int(count), nil
}

// Close releases the underlying client.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}
