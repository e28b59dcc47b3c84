package actors

import (
	stdctx "context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"debate-forum/internal/analysis"
	"debate-forum/internal/utils"
)

type (
	AnalyzeTextMsg struct {
		Text          string
		DebateContext string
	}

	JudgeSteelmanMsg struct {
		Original      string
		Reformulation string
	}
)

// AnalysisWorker performs one blocking AI call at a time. The engine runs a
// round-robin pool of them so analyses do not serialize behind each other.
type AnalysisWorker struct {
	analyzer analysis.Analyzer
	timeout  time.Duration
	metrics  *utils.MetricsCollector
	logger   *zap.Logger
}

func NewAnalysisWorker(analyzer analysis.Analyzer, timeout time.Duration, metrics *utils.MetricsCollector, logger *zap.Logger) actor.Actor {
	return &AnalysisWorker{analyzer: analyzer, timeout: timeout, metrics: metrics, logger: logger}
}

func (w *AnalysisWorker) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *AnalyzeTextMsg:
		ctx, cancel := w.callContext()
		defer cancel()
		start := time.Now()
		outcome := w.analyzer.Analyze(ctx, msg.Text, msg.DebateContext)
		w.metrics.AddOperationLatency("analyze_text", time.Since(start))
		w.metrics.AnalysisOutcome(string(outcome.Status))
		context.Respond(outcome)

	case *JudgeSteelmanMsg:
		ctx, cancel := w.callContext()
		defer cancel()
		start := time.Now()
		outcome := w.analyzer.ValidateSteelman(ctx, msg.Original, msg.Reformulation)
		w.metrics.AddOperationLatency("judge_steelman", time.Since(start))
		w.metrics.AnalysisOutcome("steelman_" + string(outcome.Status))
		context.Respond(outcome)

	case *actor.Started:
		w.logger.Debug("analysis worker started", zap.String("pid", context.Self().String()))
	}
}

func (w *AnalysisWorker) callContext() (stdctx.Context, stdctx.CancelFunc) {
	if w.timeout <= 0 {
		return stdctx.WithCancel(stdctx.Background())
	}
	return stdctx.WithTimeout(stdctx.Background(), w.timeout)
}

// outcomeFrom converts a worker future result. Timeouts and unexpected
// replies become Unavailable outcomes.
func outcomeFrom(res interface{}, err error) analysis.Outcome {
	if err != nil {
		return analysis.Unavailable("")
	}
	if o, ok := res.(analysis.Outcome); ok {
		return o
	}
	return analysis.Unavailable("")
}

func steelmanOutcomeFrom(res interface{}, err error) analysis.SteelmanOutcome {
	if err != nil {
		return analysis.SteelmanUnavailable("")
	}
	if o, ok := res.(analysis.SteelmanOutcome); ok {
		return o
	}
	return analysis.SteelmanUnavailable("")
}
