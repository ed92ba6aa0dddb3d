package redis

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"ladder-quiz-service/internal/domain"
)

func TestGameStoreSetsAndClearsActiveKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr))

	if err := store.Create(ctx, sampleRecord("g1", "u1", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("game:active:u1") {
		t.Fatalf("expected active key to be set")
	}
	if err := store.Create(ctx, sampleRecord("g2", "u1", time.Now())); !errors.Is(err, domain.ErrDuplicateActiveGame) {
		t.Fatalf("expected duplicate active game, got %v", err)
	}

	active, err := store.ActiveForUser(ctx, "u1")
	if err != nil || active.ID != "g1" {
		t.Fatalf("expected active g1, got %+v err=%v", active, err)
	}
	if got := active.Questions[0].KeyMap[domain.OptionB]; got != 0 {
		t.Fatalf("expected key map to survive round trip, got %d", got)
	}

	finished := time.Now()
	if _, err := store.Update(ctx, "g1", func(rec *domain.GameRecord) error {
		rec.FinishedAt = &finished
		rec.Prize = 200
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists("game:active:u1") {
		t.Fatalf("expected active key to be removed")
	}
	if _, err := store.ActiveForUser(ctx, "u1"); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected no active game, got %v", err)
	}

	rec, err := store.Get(ctx, "g1")
	if err != nil || rec.Prize != 200 || !rec.Finished() {
		t.Fatalf("expected stored update, got %+v err=%v", rec, err)
	}
}

func TestGameStoreUpdateKeepsRecordOnError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr))
	_ = store.Create(ctx, sampleRecord("g1", "u1", time.Now()))

	boom := errors.New("boom")
	if _, err := store.Update(ctx, "g1", func(rec *domain.GameRecord) error {
		rec.CurrentLevel = 4
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	rec, _ := store.Get(ctx, "g1")
	if rec.CurrentLevel != 0 {
		t.Fatalf("expected untouched record, got level %d", rec.CurrentLevel)
	}
	if _, err := store.Update(ctx, "nope", func(*domain.GameRecord) error { return nil }); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGameStoreListsNewestFirst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr))
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	older := sampleRecord("g1", "u1", base)
	finished := base.Add(time.Minute)
	older.FinishedAt = &finished
	_ = store.Create(ctx, older)
	_ = store.Create(ctx, sampleRecord("g2", "u1", base.Add(time.Hour)))

	games, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 || games[0].ID != "g2" || games[1].ID != "g1" {
		t.Fatalf("expected g2 then g1, got %+v", games)
	}
}

func TestGameStoreBalances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr))

	if b, err := store.Balance(ctx, "u1"); err != nil || b != 0 {
		t.Fatalf("expected empty balance, got %d err=%v", b, err)
	}
	_, _ = store.AddBalance(ctx, "u1", 1000)
	total, err := store.AddBalance(ctx, "u1", 32000)
	if err != nil || total != 33000 {
		t.Fatalf("expected 33000, got %d err=%v", total, err)
	}
	if b, _ := store.Balance(ctx, "u1"); b != 33000 {
		t.Fatalf("expected stored balance 33000, got %d", b)
	}
}

func sampleRecord(id, userID string, created time.Time) domain.GameRecord {
	return domain.GameRecord{
		ID:        id,
		UserID:    userID,
		CreatedAt: created,
		Questions: []domain.GameQuestionRecord{{
			Level:    0,
			Question: domain.Question{ID: "q1", Text: "What is 2 + 2?", Answers: []string{"4", "3", "5", "22"}},
			KeyMap:   map[domain.OptionKey]int{"a": 1, "b": 0, "c": 3, "d": 2},
		}},
	}
}

// failingMulti fails the first N MULTI pipelines with a network-style error.
type failingMulti struct {
	remaining atomic.Int32
}

func (h *failingMulti) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *failingMulti) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return next
}

func (h *failingMulti) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if cmd.Name() == "multi" && h.remaining.Add(-1) >= 0 {
				return errors.New("connection reset")
			}
		}
		return next(ctx, cmds)
	}
}

func TestFailedCreateLeavesNoActiveMarker(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := newClient(mr)
	hook := &failingMulti{}
	hook.remaining.Store(1)
	client.AddHook(hook)
	store := NewGameStore(client)

	if err := store.Create(ctx, sampleRecord("g1", "u1", time.Now())); err == nil {
		t.Fatalf("expected first create to fail")
	}
	if mr.Exists("game:active:u1") {
		t.Fatalf("active marker survived a failed create")
	}
	if _, err := store.ActiveForUser(ctx, "u1"); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected no active game, got %v", err)
	}
	if err := store.Create(ctx, sampleRecord("g2", "u1", time.Now())); err != nil {
		t.Fatalf("retry create: %v", err)
	}
	active, err := store.ActiveForUser(ctx, "u1")
	if err != nil || active.ID != "g2" {
		t.Fatalf("expected active g2, got %+v err=%v", active, err)
	}
}

func TestDanglingActiveMarkerIsReleased(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGameStore(newClient(mr))
	if err := mr.Set("game:active:u1", "ghost"); err != nil {
		t.Fatalf("set marker: %v", err)
	}

	if _, err := store.ActiveForUser(ctx, "u1"); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected no active game, got %v", err)
	}
	if mr.Exists("game:active:u1") {
		t.Fatalf("expected dangling marker to be removed")
	}
	if err := store.Create(ctx, sampleRecord("g1", "u1", time.Now())); err != nil {
		t.Fatalf("create after release: %v", err)
	}
}
