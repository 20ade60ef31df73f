package coordinator

import "github.com/pv/camfleet-go/internal/actions"

// Executor carries dispatched batch actions to the camera servers. An
// implementation must not block: it takes the dispatch and reports the
// outcome later through Coordinator.Complete. Retry policy lives here,
// not in the coordinator.
type Executor interface {
	Execute(action actions.Action, addresses []string)
}

// ExecutorFunc adapts a function to the Executor interface
type ExecutorFunc func(action actions.Action, addresses []string)

func (f ExecutorFunc) Execute(action actions.Action, addresses []string) {
	f(action, addresses)
}

// ImagePipeline consumes export and clear requests for the image
// collection. Decoding and file handling are its business entirely; the
// coordinator only forwards validated intents.
type ImagePipeline interface {
	Export(imageIDs []string)
	Clear(addresses []string)
}

// Journal receives one audit line per dispatch and completion. The
// journal package's Manager satisfies this.
type Journal interface {
	Append(action string, servers []string, event, detail string)
}
