package protocol

// Request is the tagged variant of every message this client can submit to
// a kernel's shell channel. Concrete variants: KernelInfoRequest,
// ExecuteRequest.
type Request interface {
	// Header returns the request's own header, including its msg_id.
	Header() Header
	// MsgType returns the msg_type string carried in Header, e.g.
	// "kernel_info_request".
	MsgType() string
	// Content returns the JSON-serializable content body.
	Content() any
}

// terminalReplies maps a request's msg_type to the msg_type of the reply
// that, together with an idle status, marks its Action complete. A request
// type absent from this table has no terminal reply requirement.
var terminalReplies = map[string]string{
	"kernel_info_request": "kernel_info_reply",
	"execute_request":     "execute_reply",
}

// TerminalReply returns the terminal reply msg_type expected for the given
// request msg_type, and whether one is required at all.
func TerminalReply(requestMsgType string) (string, bool) {
	reply, ok := terminalReplies[requestMsgType]
	return reply, ok
}

// KernelInfoRequest asks the kernel for its implementation and language
// info.
type KernelInfoRequest struct {
	Hdr Header
}

// NewKernelInfoRequest builds a KernelInfoRequest with a fresh header.
func NewKernelInfoRequest(session string) (KernelInfoRequest, error) {
	hdr, err := NewHeader(session, "kernel_info_request")
	if err != nil {
		return KernelInfoRequest{}, err
	}
	return KernelInfoRequest{Hdr: hdr}, nil
}

func (r KernelInfoRequest) Header() Header  { return r.Hdr }
func (r KernelInfoRequest) MsgType() string { return r.Hdr.MsgType }
func (r KernelInfoRequest) Content() any    { return struct{}{} }

// executeRequestContent is the wire content of an ExecuteRequest.
type executeRequestContent struct {
	Code            string            `json:"code"`
	Silent          bool              `json:"silent"`
	StoreHistory    bool              `json:"store_history"`
	UserExpressions map[string]string `json:"user_expressions"`
	AllowStdin      bool              `json:"allow_stdin"`
	StopOnError     bool              `json:"stop_on_error"`
}

// ExecuteRequest asks the kernel to execute a cell of code.
type ExecuteRequest struct {
	Hdr             Header
	Code            string
	Silent          bool
	StoreHistory    bool
	UserExpressions map[string]string
	AllowStdin      bool
	StopOnError     bool
}

// ExecuteOption customizes an ExecuteRequest built by NewExecuteRequest.
type ExecuteOption func(*ExecuteRequest)

// WithSilent marks the execution as silent: it won't increment the
// execution count or broadcast outputs to other clients.
func WithSilent(silent bool) ExecuteOption {
	return func(r *ExecuteRequest) { r.Silent = silent }
}

// WithStoreHistory controls whether the kernel records this execution in
// its history.
func WithStoreHistory(store bool) ExecuteOption {
	return func(r *ExecuteRequest) { r.StoreHistory = store }
}

// WithUserExpressions attaches a map of name to expression to be evaluated
// by the kernel after the cell runs, returned in the execute_reply.
func WithUserExpressions(exprs map[string]string) ExecuteOption {
	return func(r *ExecuteRequest) { r.UserExpressions = exprs }
}

// WithAllowStdin allows the kernel to request stdin input while executing.
func WithAllowStdin(allow bool) ExecuteOption {
	return func(r *ExecuteRequest) { r.AllowStdin = allow }
}

// WithStopOnError stops queued executions after this one errors.
func WithStopOnError(stop bool) ExecuteOption {
	return func(r *ExecuteRequest) { r.StopOnError = stop }
}

// NewExecuteRequest builds an ExecuteRequest with a fresh header and
// StoreHistory/StopOnError defaulted true, matching the usual notebook
// front-end defaults.
func NewExecuteRequest(session, code string, opts ...ExecuteOption) (ExecuteRequest, error) {
	hdr, err := NewHeader(session, "execute_request")
	if err != nil {
		return ExecuteRequest{}, err
	}
	r := ExecuteRequest{
		Hdr:          hdr,
		Code:         code,
		StoreHistory: true,
		StopOnError:  true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r, nil
}

func (r ExecuteRequest) Header() Header  { return r.Hdr }
func (r ExecuteRequest) MsgType() string { return r.Hdr.MsgType }
func (r ExecuteRequest) Content() any {
	userExpr := r.UserExpressions
	if userExpr == nil {
		userExpr = map[string]string{}
	}
	return executeRequestContent{
		Code:            r.Code,
		Silent:          r.Silent,
		StoreHistory:    r.StoreHistory,
		UserExpressions: userExpr,
		AllowStdin:      r.AllowStdin,
		StopOnError:     r.StopOnError,
	}
}
