package retrieval

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"docchat/internal/domain/models"
)

// fakeIndex returns a fixed global ranking regardless of the query vector.
type fakeIndex struct {
	hits []models.Chunk
	err  error
}

func (f *fakeIndex) TopK(ctx context.Context, vector []float32, k int) ([]models.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return f.hits[:k], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func chunkFor(doc uuid.UUID) models.Chunk {
	return models.Chunk{ID: uuid.New(), DocumentID: doc, Content: "text"}
}

func TestRetrieve_ScopeFilter(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()

	// B chunks rank closest globally; only A is in scope.
	index := &fakeIndex{hits: []models.Chunk{
		chunkFor(docB),
		chunkFor(docB),
		chunkFor(docA),
	}}
	svc := NewService(index, 3, testLogger())

	chunks, err := svc.Retrieve(context.Background(), []float32{1, 0}, []uuid.UUID{docA})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 in-scope chunk, got %d", len(chunks))
	}
	if chunks[0].DocumentID != docA {
		t.Errorf("returned chunk belongs to document %s, want %s", chunks[0].DocumentID, docA)
	}
}

// Post-filtering after the global top-k search may legitimately return zero
// results when every global hit is out of scope.
func TestRetrieve_AllHitsOutOfScope(t *testing.T) {
	docB := uuid.New()
	index := &fakeIndex{hits: []models.Chunk{
		chunkFor(docB),
		chunkFor(docB),
		chunkFor(docB),
	}}
	svc := NewService(index, 3, testLogger())

	chunks, err := svc.Retrieve(context.Background(), []float32{1, 0}, []uuid.UUID{uuid.New()})
	if err != nil {
		t.Fatalf("zero results must not be an error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestRetrieve_EmptyScope(t *testing.T) {
	index := &fakeIndex{hits: []models.Chunk{chunkFor(uuid.New())}}
	svc := NewService(index, 3, testLogger())

	chunks, err := svc.Retrieve(context.Background(), []float32{1, 0}, nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("empty scope must return no chunks, got %d", len(chunks))
	}
}

func TestRetrieve_PreservesIndexOrder(t *testing.T) {
	doc := uuid.New()
	first := chunkFor(doc)
	second := chunkFor(doc)
	index := &fakeIndex{hits: []models.Chunk{first, second}}
	svc := NewService(index, 2, testLogger())

	chunks, err := svc.Retrieve(context.Background(), []float32{1, 0}, []uuid.UUID{doc})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(chunks) != 2 || chunks[0].ID != first.ID || chunks[1].ID != second.ID {
		t.Fatal("retrieval must preserve the index similarity order")
	}
}
