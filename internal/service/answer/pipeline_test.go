package answer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gramacare/backend/internal/service/outbreak"
	"github.com/gramacare/backend/internal/service/retrieval"
)

type fakeGenerator struct {
	answer   string
	err      error
	question string
	chunks   []string
}

func (f *fakeGenerator) GenerateAnswer(_ context.Context, question string, chunks []string) (string, error) {
	f.question = question
	f.chunks = chunks
	return f.answer, f.err
}

// echoTranslator marks text with the target so tests can see each hop.
type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, text, target string) string {
	return "[" + target + "]" + text
}

type fixedEmbedder struct{ vec []float32 }

func (f fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, nil
}

func testRetriever() *retrieval.Service {
	idx := &retrieval.Index{
		Dim:       2,
		Documents: []retrieval.Document{{Text: "Fever needs rest and fluids."}},
		Vectors:   [][]float32{{1, 0}},
	}
	return retrieval.NewService(idx, fixedEmbedder{vec: []float32{1, 0}}, 3)
}

func TestAnswerEmptyQuery(t *testing.T) {
	p := NewPipeline(nil)
	if _, _, err := p.Answer(context.Background(), "   ", "en"); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestAnswerHealthGate(t *testing.T) {
	p := NewPipeline(nil, WithHealthGate(true))

	reply, lang, err := p.Answer(context.Background(), "what is the capital of France", "en")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if reply != RefusalReply || lang != "en" {
		t.Fatalf("expected refusal, got %q lang=%q", reply, lang)
	}

	gen := &fakeGenerator{answer: "Rest and fluids."}
	p = NewPipeline(testRetriever(), WithHealthGate(true), WithGenerator(gen))
	if reply, _, _ = p.Answer(context.Background(), "how to treat fever", "en"); reply != "Rest and fluids." {
		t.Fatalf("health question should pass the gate, got %q", reply)
	}
}

func TestAnswerTranslatesBothWays(t *testing.T) {
	gen := &fakeGenerator{answer: "Rest and fluids."}
	p := NewPipeline(testRetriever(), WithGenerator(gen), WithTranslator(echoTranslator{}))

	reply, lang, err := p.Answer(context.Background(), "बुखार का इलाज कैसे करें", "auto")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if lang != "hi" {
		t.Fatalf("lang = %q, want hi", lang)
	}
	if !strings.HasPrefix(reply, "[hi]") {
		t.Fatalf("reply should be translated back to hindi, got %q", reply)
	}
	if !strings.HasPrefix(gen.question, "[en]") {
		t.Fatalf("generator should receive the english question, got %q", gen.question)
	}
	if len(gen.chunks) != 1 || gen.chunks[0] != "Fever needs rest and fluids." {
		t.Fatalf("generator should receive retrieved context, got %v", gen.chunks)
	}
}

func TestAnswerFallsBackWithoutGenerator(t *testing.T) {
	p := NewPipeline(testRetriever())

	reply, lang, err := p.Answer(context.Background(), "how to treat fever", "en")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if lang != "en" {
		t.Fatalf("lang = %q", lang)
	}
	if !strings.Contains(reply, "Fever needs rest and fluids") || !strings.Contains(reply, "nearest PHC") {
		t.Fatalf("expected context fallback, got %q", reply)
	}
}

func TestAnswerFallsBackOnGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	p := NewPipeline(testRetriever(), WithGenerator(gen))

	reply, _, err := p.Answer(context.Background(), "how to treat fever", "en")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(reply, "Fever needs rest and fluids") {
		t.Fatalf("expected fallback answer, got %q", reply)
	}
}

func TestAnswerAppendsOutbreakNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"active": 42}`))
	}))
	defer srv.Close()

	gen := &fakeGenerator{answer: "Dengue spreads via mosquitoes."}
	p := NewPipeline(testRetriever(), WithGenerator(gen), WithOutbreakClient(outbreak.NewClient(srv.URL)))

	reply, _, err := p.Answer(context.Background(), "is there a dengue outbreak", "en")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.HasSuffix(reply, "Note: Global active COVID cases (approx): 42") {
		t.Fatalf("expected outbreak note, got %q", reply)
	}
}
