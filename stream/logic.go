package stream

// BaseLogic implements every Logic handler as a transparent pass-through.
// Embed it and override the handlers a stage cares about.
type BaseLogic[T any] struct{}

func (BaseLogic[T]) PreStart(StageContext[T]) {}

func (BaseLogic[T]) OnPush(sc StageContext[T], elem T) { sc.Push(elem) }

func (BaseLogic[T]) OnPull(sc StageContext[T]) {
	if !sc.HasBeenPulled() && !sc.IsClosed() {
		sc.Pull()
	}
}

func (BaseLogic[T]) OnUpstreamFinish(sc StageContext[T]) { sc.CompleteStage() }

func (BaseLogic[T]) OnUpstreamFailure(sc StageContext[T], err error) { sc.FailStage(err) }

func (BaseLogic[T]) OnDownstreamFinish(sc StageContext[T]) { sc.CompleteStage() }

func (BaseLogic[T]) OnTimer(StageContext[T], string) {}

func (BaseLogic[T]) PostStop(StageContext[T]) {}

type identity[T any] struct{}

// Identity returns a stage that forwards every signal unchanged.
func Identity[T any]() Stage[T] { return identity[T]{} }

func (identity[T]) Name() string { return "Identity" }

func (identity[T]) CreateLogic(Attributes) Logic[T] { return BaseLogic[T]{} }
