package actors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"debate-forum/internal/analysis"
	"debate-forum/internal/config"
	"debate-forum/internal/database"
	"debate-forum/internal/models"
)

const testTimeout = 5 * time.Second

type fakeAnalyzer struct {
	mu       sync.Mutex
	outcome  analysis.Outcome
	steelman analysis.SteelmanOutcome
	delay    time.Duration
	calls    int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text, debateContext string) analysis.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.outcome
}

func (f *fakeAnalyzer) ValidateSteelman(ctx context.Context, original, reformulation string) analysis.SteelmanOutcome {
	f.mu.Lock()
	delay := f.delay
	f.mu.Unlock()
	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.steelman
}

func (f *fakeAnalyzer) set(o analysis.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcome = o
}

func (f *fakeAnalyzer) setSteelman(o analysis.SteelmanOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steelman = o
}

func (f *fakeAnalyzer) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (p *recordingPublisher) Publish(e models.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	t         *testing.T
	system    *actor.ActorSystem
	store     *database.MemoryStore
	analyzer  *fakeAnalyzer
	publisher *recordingPublisher
	deps      Deps

	argumentPID   *actor.PID
	ratingPID     *actor.PID
	debatePID     *actor.PID
	reputationPID *actor.PID
}

func newTestEnv(t *testing.T, limits *config.RateLimitConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		t:         t,
		system:    actor.NewActorSystem(),
		store:     database.NewMemoryStore(),
		analyzer:  &fakeAnalyzer{outcome: analysis.Unavailable("")},
		publisher: &recordingPublisher{},
	}
	env.deps = Deps{
		DB:        env.store,
		Limits:    limits,
		Publisher: env.publisher,
	}.WithDefaults()

	root := env.system.Root
	worker := root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewAnalysisWorker(env.analyzer, time.Second, env.deps.Metrics, env.deps.Logger)
	}))
	env.reputationPID = root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewReputationActor(env.deps)
	}))
	env.argumentPID = root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewArgumentActor(env.deps, worker, env.reputationPID, 2*time.Second)
	}))
	env.ratingPID = root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewRatingActor(env.deps)
	}))
	env.debatePID = root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewDebateActor(env.deps)
	}))
	t.Cleanup(env.system.Shutdown)
	return env
}

func (e *testEnv) request(pid *actor.PID, msg interface{}) interface{} {
	e.t.Helper()
	res, err := e.system.Root.RequestFuture(pid, msg, testTimeout).Result()
	require.NoError(e.t, err)
	return res
}

func (e *testEnv) user(name string) *models.UserProfile {
	e.t.Helper()
	u := &models.UserProfile{ID: uuid.New(), Username: name, Email: name + "@example.com"}
	require.NoError(e.t, e.store.SaveUser(context.Background(), u))
	return u
}

func (e *testEnv) debate(creator uuid.UUID) *models.Debate {
	e.t.Helper()
	d := &models.Debate{ID: uuid.New(), Title: "Should cities ban cars?", CreatorID: creator}
	require.NoError(e.t, e.store.SaveDebate(context.Background(), d))
	return d
}

func (e *testEnv) argument(debateID, author uuid.UUID, text string) *models.Argument {
	e.t.Helper()
	a := &models.Argument{ID: uuid.New(), DebateID: debateID, Text: text, Type: models.ArgumentPro, AuthorID: author}
	require.NoError(e.t, e.store.SaveArgument(context.Background(), a))
	return a
}

func (e *testEnv) reputation(id uuid.UUID) int {
	e.t.Helper()
	u, err := e.store.GetUser(context.Background(), id)
	require.NoError(e.t, err)
	return u.Reputation
}

func analysisWith(relevance int, evidence bool, concrete bool, fallacy string) analysis.Outcome {
	a := models.QualityAnalysis{
		Relevance:   models.RelevanceDimension{Score: relevance, Justification: "on topic"},
		Evidence:    models.EvidenceDimension{Status: models.EvidenceAbsent},
		Specificity: models.SpecificityDimension{Status: models.SpecificityVague},
		Fallacy:     models.FallacyDimension{Name: fallacy},
	}
	if evidence {
		a.Evidence.Status = models.EvidencePresent
	}
	if concrete {
		a.Specificity.Status = models.SpecificityConcrete
	}
	return analysis.Available(a)
}

func strPtr(s string) *string { return &s }
