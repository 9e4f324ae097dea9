package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/danielpatrickdp/mathpilot/internal/calc"
	"github.com/danielpatrickdp/mathpilot/internal/config"
	"github.com/danielpatrickdp/mathpilot/internal/explainer"
	"github.com/danielpatrickdp/mathpilot/internal/guardrail"
	"github.com/danielpatrickdp/mathpilot/internal/knowledge"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
	"github.com/danielpatrickdp/mathpilot/internal/memory"
	"github.com/danielpatrickdp/mathpilot/internal/parse"
	"github.com/danielpatrickdp/mathpilot/internal/pipeline"
	"github.com/danielpatrickdp/mathpilot/internal/router"
	"github.com/danielpatrickdp/mathpilot/internal/solver"
	"github.com/danielpatrickdp/mathpilot/internal/verifier"
)

// #region main
func main() {
	cfg := config.Load()

	mem, err := memory.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer mem.Close()

	client, err := llm.NewChatClient(llm.Config{
		APIKey:     cfg.LLMAPIKey,
		BaseURL:    cfg.LLMBaseURL,
		Model:      cfg.LLMModel,
		EmbedModel: cfg.EmbedModel,
	})
	if err != nil {
		log.Fatalf("failed to build model client: %v", err)
	}

	kb := openKnowledge(cfg, client)

	pipe := pipeline.New(
		parse.New(client, nil, nil),
		router.New(client),
		solver.New(client, guardrail.New(client), calc.New(client), kb),
		verifier.New(client),
		explainer.New(client),
		mem,
		kb,
	)

	fmt.Println("Math pipeline ready.")
	fmt.Printf("  DB: %s | Model: %s\n", cfg.DBPath, cfg.LLMModel)
	fmt.Println("Type a problem (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		state, err := pipe.Start(ctx, text, "", "", "")
		cancel()
		if err != nil {
			log.Printf("pipeline error: %v", err)
			continue
		}

		printState(state)

		for state.NeedsHITL {
			state = askHuman(pipe, state, scanner)
			if state == nil {
				break
			}
		}
		if state != nil && state.Step == pipeline.StepComplete {
			askOutcome(pipe, state, scanner)
		}
	}
}

// #endregion main

// #region knowledge
// openKnowledge connects to the vector index, degrading to a seeded
// in-memory store when the index is unreachable.
func openKnowledge(cfg config.Settings, embedder llm.Embedder) knowledge.Store {
	qs, err := knowledge.NewQdrantStore(knowledge.QdrantConfig{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dims:       cfg.QdrantDims,
	}, embedder)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := qs.EnsureCollection(ctx); err == nil {
			return qs
		}
		log.Printf("qdrant unreachable, using in-memory knowledge: %v", err)
		qs.Close()
	} else {
		log.Printf("qdrant setup failed, using in-memory knowledge: %v", err)
	}

	ms := knowledge.NewMemoryStore()
	if err := knowledge.Seed(context.Background(), ms); err != nil {
		log.Printf("seed failed: %v", err)
	}
	return ms
}

// #endregion knowledge

// #region interaction

func printState(state *pipeline.State) {
	fmt.Printf("\n[%s] step=%s category=%s\n", shortID(state.SessionID), state.Step, state.Category)
	if state.NeedsHITL {
		fmt.Printf("NEEDS REVIEW: %s\n", state.HITLReason)
		return
	}
	for i, s := range state.Steps {
		fmt.Printf("  %d. %s\n", i+1, s)
	}
	fmt.Printf("Answer: %s (confidence %.2f, verified=%v)\n",
		state.FinalAnswer, state.Confidence, state.VerificationPassed)
	if state.Explanation != nil {
		fmt.Printf("Concept: %s | Insight: %s\n", state.Explanation.Concept, state.Explanation.KeyInsight)
	}
}

// askHuman collects one round of feedback for a halted session.
func askHuman(pipe *pipeline.Pipeline, state *pipeline.State, scanner *bufio.Scanner) *pipeline.State {
	fmt.Println("Feedback: correct:<text> | answer:<text> | approve | skip")
	fmt.Print("? ")
	if !scanner.Scan() {
		return nil
	}
	input := strings.TrimSpace(scanner.Text())

	var fb pipeline.Feedback
	switch {
	case strings.HasPrefix(input, "correct:"):
		fb.CorrectedText = strings.TrimSpace(strings.TrimPrefix(input, "correct:"))
	case strings.HasPrefix(input, "answer:"):
		fb.OverrideAnswer = strings.TrimSpace(strings.TrimPrefix(input, "answer:"))
	case input == "approve":
		fb.Approve = true
	default:
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	next, err := pipe.Resume(ctx, state, fb)
	if err != nil {
		log.Printf("resume error: %v", err)
		return nil
	}
	printState(next)
	return next
}

// askOutcome closes the loop on a completed answer.
func askOutcome(pipe *pipeline.Pipeline, state *pipeline.State, scanner *bufio.Scanner) {
	fmt.Print("Was this correct? (y/n/skip) ")
	if !scanner.Scan() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	switch strings.TrimSpace(scanner.Text()) {
	case "y":
		pipe.RecordSuccess(ctx, state)
	case "n":
		state = pipe.RecordFailure(ctx, state)
		fmt.Printf("%s\n", state.Critique)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion interaction
