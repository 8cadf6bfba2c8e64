// Package connection loads a Jupyter connection file and derives the
// endpoint addresses this client dials.
package connection

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Info stores the contents of a Jupyter kernel connection file, the JSON
// document a kernel process writes on startup (or a front-end writes before
// launching one) describing how to reach it.
type Info struct {
	SignatureScheme string `json:"signature_scheme"`
	Transport       string `json:"transport"`
	IP              string `json:"ip"`
	StdinPort       int    `json:"stdin_port"`
	ControlPort     int    `json:"control_port"`
	ShellPort       int    `json:"shell_port"`
	IOPubPort       int    `json:"iopub_port"`
	HBPort          int    `json:"hb_port"`
	Key             string `json:"key"`
}

// Load reads and parses a connection file.
func Load(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, errors.WithMessagef(err, "reading connection file %s", path)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, errors.WithMessagef(err, "parsing connection file %s", path)
	}
	return info, nil
}

// address formats a ZMQ endpoint for the given port, honoring the
// connection file's transport (tcp or ipc).
func (i Info) address(port int) string {
	switch i.Transport {
	case "ipc":
		return fmt.Sprintf("ipc://%s-%d", i.IP, port)
	default:
		return fmt.Sprintf("tcp://%s:%d", i.IP, port)
	}
}

// ShellAddress is the endpoint this client dials its Dealer socket to.
func (i Info) ShellAddress() string { return i.address(i.ShellPort) }

// IOPubAddress is the endpoint this client dials its Sub socket to.
func (i Info) IOPubAddress() string { return i.address(i.IOPubPort) }

// HeartbeatAddress is the endpoint this client dials its Req socket to.
func (i Info) HeartbeatAddress() string { return i.address(i.HBPort) }
