package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"docchat/internal/domain"
	"docchat/internal/domain/models"
	"docchat/internal/domain/repositories"
	"docchat/internal/domain/services"
)

// ---- fakes ----

type fakeThreadRepo struct {
	threads map[uuid.UUID]*models.Thread
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{threads: make(map[uuid.UUID]*models.Thread)}
}

func (f *fakeThreadRepo) Create(ctx context.Context, thread *models.Thread) error {
	thread.ID = uuid.New()
	copied := *thread
	f.threads[thread.ID] = &copied
	return nil
}

func (f *fakeThreadRepo) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*models.Thread, error) {
	thread, ok := f.threads[id]
	if !ok || thread.OwnerID != ownerID {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	copied := *thread
	return &copied, nil
}

func (f *fakeThreadRepo) List(ctx context.Context, ownerID string) ([]models.Thread, error) {
	var out []models.Thread
	for _, t := range f.threads {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeThreadRepo) Rename(ctx context.Context, id uuid.UUID, ownerID, name string) error {
	thread, ok := f.threads[id]
	if !ok || thread.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	thread.Name = name
	return nil
}

func (f *fakeThreadRepo) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	thread, ok := f.threads[id]
	if !ok || thread.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(f.threads, id)
	return nil
}

type fakeMessageRepo struct {
	messages []models.Message
	sources  map[uuid.UUID][]uuid.UUID
	chunks   map[uuid.UUID]models.Chunk
	docNames map[uuid.UUID]string
	seq      int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		sources:  make(map[uuid.UUID][]uuid.UUID),
		chunks:   make(map[uuid.UUID]models.Chunk),
		docNames: make(map[uuid.UUID]string),
	}
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = uuid.New()
	f.seq++
	msg.CreatedAt = time.Unix(int64(f.seq), 0)
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) ListByThread(ctx context.Context, threadID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ListByThreadWithSources(ctx context.Context, threadID uuid.UUID) ([]models.MessageWithSources, error) {
	msgs, _ := f.ListByThread(ctx, threadID)
	out := make([]models.MessageWithSources, 0, len(msgs))
	for _, m := range msgs {
		expanded := models.MessageWithSources{Message: m, Sources: []models.ResolvedSource{}}
		for _, chunkID := range f.sources[m.ID] {
			chunk := f.chunks[chunkID]
			expanded.Sources = append(expanded.Sources, models.ResolvedSource{
				ChunkID:      chunk.ID,
				DocumentID:   chunk.DocumentID,
				DocumentName: f.docNames[chunk.DocumentID],
				LineFrom:     chunk.Position.LineFrom,
				LineTo:       chunk.Position.LineTo,
			})
		}
		out = append(out, expanded)
	}
	return out, nil
}

func (f *fakeMessageRepo) CreateSources(ctx context.Context, messageID uuid.UUID, chunkIDs []uuid.UUID) error {
	f.sources[messageID] = append(f.sources[messageID], chunkIDs...)
	return nil
}

type fakeDocRepo struct {
	docs []models.Document
}

func (f *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error {
	doc.ID = uuid.New()
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeDocRepo) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*models.Document, error) {
	for _, d := range f.docs {
		if d.ID == id && d.OwnerID == ownerID {
			copied := d
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocRepo) List(ctx context.Context, ownerID string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range f.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocRepo) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	for i, d := range f.docs {
		if d.ID == id && d.OwnerID == ownerID {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type stubRetriever struct {
	chunks []models.Chunk
	err    error
}

func (s *stubRetriever) Retrieve(ctx context.Context, vector []float32, allowed []uuid.UUID) ([]models.Chunk, error) {
	return s.chunks, s.err
}

type stubGenerator struct {
	answer string
	err    error
	prompt []services.PromptMessage
}

func (s *stubGenerator) Generate(ctx context.Context, messages []services.PromptMessage) (string, error) {
	s.prompt = messages
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

// ---- harness ----

type harness struct {
	svc       services.AnswerService
	threads   *fakeThreadRepo
	messages  *fakeMessageRepo
	docs      *fakeDocRepo
	retriever *stubRetriever
	generator *stubGenerator
	embedder  *stubEmbedder
	doc       models.Document
	chunks    []models.Chunk
}

const owner = "user-1"

func newHarness(t *testing.T) *harness {
	t.Helper()

	threads := newFakeThreadRepo()
	messages := newFakeMessageRepo()
	docs := &fakeDocRepo{}

	doc := models.Document{OwnerID: owner, Name: "handbook.txt"}
	if err := docs.Create(context.Background(), &doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	chunks := []models.Chunk{
		{ID: uuid.New(), DocumentID: doc.ID, Content: "Line1 content",
			Position: models.PositionMetadata{Name: doc.Name, LineFrom: 1, LineTo: 10}},
		{ID: uuid.New(), DocumentID: doc.ID, Content: "Line11 content",
			Position: models.PositionMetadata{Name: doc.Name, LineFrom: 11, LineTo: 20}},
		{ID: uuid.New(), DocumentID: doc.ID, Content: "Line21 content",
			Position: models.PositionMetadata{Name: doc.Name, LineFrom: 21, LineTo: 30}},
	}
	for _, c := range chunks {
		messages.chunks[c.ID] = c
	}
	messages.docNames[doc.ID] = doc.Name

	retriever := &stubRetriever{chunks: chunks}
	generator := &stubGenerator{answer: "Line 1 contains the introduction."}
	embedder := &stubEmbedder{}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := NewService(threads, messages, docs, fakeTxManager{}, embedder, retriever, generator, logger)

	return &harness{
		svc:       svc,
		threads:   threads,
		messages:  messages,
		docs:      docs,
		retriever: retriever,
		generator: generator,
		embedder:  embedder,
		doc:       doc,
		chunks:    chunks,
	}
}

func (h *harness) request() *services.AnswerRequest {
	return &services.AnswerRequest{
		OwnerID:             owner,
		Question:            "what is in line 1?",
		SelectedDocumentIDs: []uuid.UUID{h.doc.ID},
	}
}

// ---- write path ----

func TestAnswer_NewThread(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Answer(context.Background(), h.request())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if result.Message.Role != models.RoleAssistant {
		t.Errorf("expected assistant role, got %q", result.Message.Role)
	}
	if result.Message.Content == "" {
		t.Error("expected non-empty answer content")
	}
	if len(result.Sources) != 3 {
		t.Fatalf("expected 3 resolved sources, got %d", len(result.Sources))
	}
	for _, src := range result.Sources {
		if src.DocumentID != h.doc.ID {
			t.Errorf("source document %s, want %s", src.DocumentID, h.doc.ID)
		}
		if src.DocumentName != "handbook.txt" {
			t.Errorf("source document name %q, want handbook.txt", src.DocumentName)
		}
	}
	if result.Sources[0].LineFrom != 1 || result.Sources[0].LineTo != 10 {
		t.Errorf("first source line range %d-%d, want 1-10",
			result.Sources[0].LineFrom, result.Sources[0].LineTo)
	}

	// A thread was created lazily and named from the question.
	if len(h.threads.threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(h.threads.threads))
	}
	for _, thread := range h.threads.threads {
		if thread.Name != "what is in line 1?" {
			t.Errorf("thread name %q, want the question text", thread.Name)
		}
	}

	// User turn then assistant turn were persisted.
	if len(h.messages.messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(h.messages.messages))
	}
	if h.messages.messages[0].Role != models.RoleUser || h.messages.messages[1].Role != models.RoleAssistant {
		t.Error("expected user message followed by assistant message")
	}
}

// The persisted user message keeps the bare question; only the prompt sent
// to the generator carries the source text.
func TestAnswer_SourceInjectionIsInMemoryOnly(t *testing.T) {
	h := newHarness(t)

	if _, err := h.svc.Answer(context.Background(), h.request()); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	persisted := h.messages.messages[0]
	if persisted.Content != "what is in line 1?" {
		t.Errorf("persisted user message was mutated: %q", persisted.Content)
	}

	prompt := h.generator.prompt
	if len(prompt) == 0 {
		t.Fatal("generator received no prompt")
	}
	if prompt[0].Role != models.RoleSystem {
		t.Errorf("first prompt message role %q, want system", prompt[0].Role)
	}
	last := prompt[len(prompt)-1]
	if last.Role != models.RoleUser {
		t.Errorf("last prompt message role %q, want user", last.Role)
	}
	if !strings.Contains(last.Content, "what is in line 1?") ||
		!strings.Contains(last.Content, "Sources: ") ||
		!strings.Contains(last.Content, "Line1 content") {
		t.Errorf("last prompt message missing question or sources: %q", last.Content)
	}
}

func TestAnswer_ExistingThreadHistory(t *testing.T) {
	h := newHarness(t)

	first, err := h.svc.Answer(context.Background(), h.request())
	if err != nil {
		t.Fatalf("first Answer failed: %v", err)
	}
	threadID := first.Message.ThreadID

	req := h.request()
	req.ThreadID = &threadID
	req.Question = "and line 2?"
	if _, err := h.svc.Answer(context.Background(), req); err != nil {
		t.Fatalf("second Answer failed: %v", err)
	}

	if len(h.threads.threads) != 1 {
		t.Fatalf("second question must reuse the thread, got %d threads", len(h.threads.threads))
	}

	// Prompt: system + first user + first assistant + augmented follow-up.
	prompt := h.generator.prompt
	if len(prompt) != 4 {
		t.Fatalf("expected 4 prompt messages, got %d", len(prompt))
	}
	if prompt[1].Content != "what is in line 1?" {
		t.Errorf("history out of order: %q", prompt[1].Content)
	}
	if prompt[2].Role != models.RoleAssistant {
		t.Errorf("expected assistant history message, got %q", prompt[2].Role)
	}
	if !strings.Contains(prompt[3].Content, "and line 2?") {
		t.Errorf("follow-up question missing from last prompt message")
	}
}

func TestAnswer_NoSourcesFailClosed(t *testing.T) {
	h := newHarness(t)
	h.retriever.chunks = nil

	_, err := h.svc.Answer(context.Background(), h.request())
	if !errors.Is(err, domain.ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}

	if len(h.messages.messages) != 0 {
		t.Errorf("fail-closed answer must not persist messages, found %d", len(h.messages.messages))
	}
	if len(h.threads.threads) != 0 {
		t.Errorf("fail-closed answer must not create threads, found %d", len(h.threads.threads))
	}
}

func TestAnswer_ForeignThreadForbidden(t *testing.T) {
	h := newHarness(t)

	foreign := &models.Thread{OwnerID: "user-2", Name: "theirs"}
	if err := h.threads.Create(context.Background(), foreign); err != nil {
		t.Fatalf("seed thread: %v", err)
	}

	req := h.request()
	req.ThreadID = &foreign.ID
	_, err := h.svc.Answer(context.Background(), req)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(h.messages.messages) != 0 {
		t.Error("forbidden answer must have no side effects")
	}
}

func TestAnswer_ForeignDocumentScopeForbidden(t *testing.T) {
	h := newHarness(t)

	theirs := models.Document{OwnerID: "user-2", Name: "secret.txt"}
	if err := h.docs.Create(context.Background(), &theirs); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	req := h.request()
	req.SelectedDocumentIDs = append(req.SelectedDocumentIDs, theirs.ID)
	_, err := h.svc.Answer(context.Background(), req)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign document in scope, got %v", err)
	}
}

// A generator failure leaves the already-persisted user message behind but
// no assistant message and no source links.
func TestAnswer_GeneratorFailureOrphansUserMessage(t *testing.T) {
	h := newHarness(t)
	h.generator.err = errors.New("upstream timeout")

	_, err := h.svc.Answer(context.Background(), h.request())
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	if len(h.messages.messages) != 1 {
		t.Fatalf("expected the orphaned user message only, got %d messages", len(h.messages.messages))
	}
	if h.messages.messages[0].Role != models.RoleUser {
		t.Errorf("orphaned message role %q, want user", h.messages.messages[0].Role)
	}
	if len(h.messages.sources) != 0 {
		t.Error("no source links may exist without an assistant message")
	}
}

func TestAnswer_EmbeddingFailureHasNoSideEffects(t *testing.T) {
	h := newHarness(t)
	h.embedder.err = errors.New("connection refused")

	_, err := h.svc.Answer(context.Background(), h.request())
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if len(h.messages.messages) != 0 || len(h.threads.threads) != 0 {
		t.Error("embedding failure must have no side effects")
	}
}

func TestAnswer_EmptyQuestionRejected(t *testing.T) {
	h := newHarness(t)

	req := h.request()
	req.Question = ""
	_, err := h.svc.Answer(context.Background(), req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAnswer_Unauthenticated(t *testing.T) {
	h := newHarness(t)

	req := h.request()
	req.OwnerID = ""
	_, err := h.svc.Answer(context.Background(), req)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// ---- read path ----

func TestListMessages_ProvenanceDedup(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Answer(context.Background(), h.request())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	msgs, err := h.svc.ListMessages(context.Background(), owner, result.Message.ThreadID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	assistant := msgs[1]
	if assistant.Role != models.RoleAssistant {
		t.Fatalf("second message role %q, want assistant", assistant.Role)
	}
	if len(assistant.Sources) != 3 {
		t.Errorf("assistant message must carry 3 sources, got %d", len(assistant.Sources))
	}
	if len(msgs[0].Sources) != 0 {
		t.Errorf("user message must carry no sources, got %d", len(msgs[0].Sources))
	}
}

func TestListMessages_ForeignThreadForbidden(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Answer(context.Background(), h.request())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	_, err = h.svc.ListMessages(context.Background(), "user-2", result.Message.ThreadID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListMessages_IdempotentRead(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Answer(context.Background(), h.request())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	first, err := h.svc.ListMessages(context.Background(), owner, result.Message.ThreadID)
	if err != nil {
		t.Fatalf("first ListMessages failed: %v", err)
	}
	second, err := h.svc.ListMessages(context.Background(), owner, result.Message.ThreadID)
	if err != nil {
		t.Fatalf("second ListMessages failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated reads with no intervening writes must be identical")
	}
}
