package analysis

// Messages reported in a failed analysis envelope
const (
	MsgLoadFailed          = "Failed to load data"
	MsgUnexpectedStructure = "Unexpected JSON structure"
	MsgInvalidPopulation   = "Failed to parse population data"
	MsgRenderFailed        = "Failed to render plot"
	MsgPublishFailed       = "Failed to publish plot"
)

// Error is a fatal analysis failure. Message is safe to return to the
// invoker; Err carries the cause for logs.
type Error struct {
	Stage   string // load, parse, render, publish
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(stage, message string, err error) *Error {
	return &Error{Stage: stage, Message: message, Err: err}
}
