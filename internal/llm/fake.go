package llm

// #region imports
import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// #endregion

// #region fake

// Fake is a scripted Client for tests. Responses are matched in two ways:
// exact queued replies (FIFO) and substring rules checked against the prompt.
// Queued replies win over rules. With nothing matching, Generate errors.
type Fake struct {
	mu      sync.Mutex
	queue   []string
	rules   []fakeRule
	Prompts []string // every prompt seen, in order
}

type fakeRule struct {
	substr string
	reply  string
}

// NewFake returns an empty scripted client.
func NewFake() *Fake {
	return &Fake{}
}

// Queue appends replies returned in order, one per Generate call.
func (f *Fake) Queue(replies ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, replies...)
	return f
}

// Respond registers a reply for any prompt containing substr.
func (f *Fake) Respond(substr, reply string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{substr: substr, reply: reply})
	return f
}

// Generate replays the script.
func (f *Fake) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)

	if len(f.queue) > 0 {
		reply := f.queue[0]
		f.queue = f.queue[1:]
		return reply, nil
	}
	for _, r := range f.rules {
		if strings.Contains(prompt, r.substr) {
			return r.reply, nil
		}
	}
	return "", fmt.Errorf("llm fake: no scripted reply for prompt %q", truncate(prompt, 80))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion

// #region fake-embedder

// FakeEmbedder hashes tokens into a fixed-size bag-of-words vector.
// Deterministic and dependency-free, for knowledge-store tests.
type FakeEmbedder struct {
	Dims int
}

// Embed maps each token to a bucket by FNV-style hashing.
func (e FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dims := e.Dims
	if dims <= 0 {
		dims = 64
	}
	vec := make([]float32, dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		var h uint32 = 2166136261
		for i := 0; i < len(tok); i++ {
			h ^= uint32(tok[i])
			h *= 16777619
		}
		vec[h%uint32(dims)]++
	}
	return vec, nil
}

// #endregion
