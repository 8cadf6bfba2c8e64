package observer

import (
	"k8s.io/klog/v2"

	"kernelsidecar/protocol"
)

// Debug logs every response it sees at verbosity level 2, for tracing an
// Action's traffic during development.
type Debug struct{}

// Observe implements Observer.
func (Debug) Observe(resp protocol.Response) {
	klog.V(2).Infof("observer debug: %s parent=%s %+v", resp.MsgType(), resp.ParentMsgID(), resp)
}
