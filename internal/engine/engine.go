package engine

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/router"

	"debate-forum/internal/analysis"
	"debate-forum/internal/engine/actors"
)

// Options configures the actor graph. Deps is shared by all domain actors.
type Options struct {
	Deps     actors.Deps
	Analyzer analysis.Analyzer
	Tokens   actors.TokenGenerator

	// AnalysisWorkers is the size of the round-robin pool of AI workers.
	AnalysisWorkers int
	// AnalysisTimeout bounds one AI call inside a worker.
	AnalysisTimeout time.Duration
	// BcryptCost is passed to the user supervisor; zero means bcrypt.DefaultCost.
	BcryptCost int
}

// Engine coordinates communication between actors
type Engine struct {
	analysisPool    *actor.PID
	userSupervisor  *actor.PID
	debateActor     *actor.PID
	argumentActor   *actor.PID
	ratingActor     *actor.PID
	reputationActor *actor.PID
}

func NewEngine(system *actor.ActorSystem, opts Options) *Engine {
	context := system.Root

	if opts.Analyzer == nil {
		opts.Analyzer = analysis.Disabled{}
	}
	if opts.AnalysisWorkers < 1 {
		opts.AnalysisWorkers = 1
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = 20 * time.Second
	}
	deps := opts.Deps.WithDefaults()

	// Spawn the analysis worker pool
	poolProps := router.NewRoundRobinPool(opts.AnalysisWorkers, actor.WithProducer(func() actor.Actor {
		return actors.NewAnalysisWorker(opts.Analyzer, opts.AnalysisTimeout, deps.Metrics, deps.Logger)
	}))
	poolPID := context.Spawn(poolProps)

	reputationPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewReputationActor(deps)
	}))

	userPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserSupervisor(deps, opts.Tokens, opts.BcryptCost)
	}))

	debatePID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewDebateActor(deps)
	}))

	// The argument actor waits slightly longer than the worker so a slow
	// provider surfaces as an Unavailable outcome instead of a future timeout.
	waitTimeout := opts.AnalysisTimeout + 2*time.Second
	argumentPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewArgumentActor(deps, poolPID, reputationPID, waitTimeout)
	}))

	ratingPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewRatingActor(deps)
	}))

	return &Engine{
		analysisPool:    poolPID,
		userSupervisor:  userPID,
		debateActor:     debatePID,
		argumentActor:   argumentPID,
		ratingActor:     ratingPID,
		reputationActor: reputationPID,
	}
}

func (e *Engine) GetUserSupervisor() *actor.PID { return e.userSupervisor }

func (e *Engine) GetDebateActor() *actor.PID { return e.debateActor }

func (e *Engine) GetArgumentActor() *actor.PID { return e.argumentActor }

func (e *Engine) GetRatingActor() *actor.PID { return e.ratingActor }

func (e *Engine) GetReputationActor() *actor.PID { return e.reputationActor }

// GetAnalysisPool returns the router PID in front of the AI workers
func (e *Engine) GetAnalysisPool() *actor.PID { return e.analysisPool }
