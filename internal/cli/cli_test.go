package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/config"
	"ladder-quiz-service/internal/infra/memory"
)

func TestSampleQuestionsCoverEveryLevel(t *testing.T) {
	questions, err := readQuestions("")
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	levels := make(map[int]int)
	for _, q := range questions {
		levels[q.Level]++
	}
	for level := 0; level <= app.DefaultPrizeTable().MaxLevel(); level++ {
		if levels[level] == 0 {
			t.Fatalf("no sample question for level %d", level)
		}
	}
}

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"start", "migrate", "seed"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("missing %s command: %v", name, err)
		}
	}
}

func TestBuildBackendsInMemory(t *testing.T) {
	var cfg config.Config
	b, err := buildBackends(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer b.close()
	if _, ok := b.games.(*memory.GameStore); !ok {
		t.Fatalf("expected memory game store, got %T", b.games)
	}
	if _, err := b.questions.PickQuestion(context.Background(), 14); err != nil {
		t.Fatalf("pick from sample bank: %v", err)
	}
}

func TestBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: debug\ngame:\n  timeLimit: 1m\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, log, err := bootstrap(path)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	rules, err := cfg.Rules()
	if err != nil || rules.TimeLimit != time.Minute {
		t.Fatalf("rules: %v %+v", err, rules)
	}
	if log == nil {
		t.Fatalf("expected logger")
	}
}
