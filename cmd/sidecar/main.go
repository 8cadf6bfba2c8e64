// Command sidecar connects to a running Jupyter kernel, executes one
// block of code against it, and prints the outputs it streams back.
// Without -code it only sends a kernel_info_request.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"kernelsidecar/action"
	"kernelsidecar/client"
	"kernelsidecar/connection"
	"kernelsidecar/observer"
	"kernelsidecar/protocol"
)

var (
	flagConnectionFile = flag.String("connection_file", "",
		"Path to the Jupyter connection file describing the kernel to attach to.")
	flagWait = flag.Bool("wait", false,
		"If set, wait for --connection_file to be created instead of failing immediately.")
	flagCode = flag.String("code", "",
		"Code to submit as a single execute_request. If empty, only a kernel_info_request is sent.")
	flagTimeout = flag.Duration("timeout", 30*time.Second,
		"How long to wait for the requested execution to complete.")
	flagVerifySignatures = flag.Bool("verify_signatures", false,
		"Verify the HMAC signature of every incoming message against the connection file's key.")
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()
	flag.Parse()

	if *flagConnectionFile == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-connection_file is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	if *flagWait {
		must.M(connection.WaitForFile(ctx, *flagConnectionFile))
	}
	info := must.M1(connection.Load(*flagConnectionFile))

	c := must.M1(client.Dial(ctx, info, "sidecar-session",
		client.WithSignatureVerification(*flagVerifySignatures)))
	defer c.Close()

	counter := observer.NewCounter()
	observers := []observer.Observer{observer.Debug{}, counter, printingObserver{}}

	var a *action.Action
	var err error
	if *flagCode != "" {
		a, err = c.Execute(ctx, *flagCode, nil, observers...)
	} else {
		a, err = c.KernelInfo(ctx, observers...)
	}
	must.M(err)

	select {
	case <-a.Done():
		if err := a.Err(); err != nil {
			klog.Errorf("request did not complete cleanly: %+v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		klog.Errorf("timed out after %s waiting for kernel", *flagTimeout)
		os.Exit(1)
	}

	color.New(color.FgCyan).Printf("done: observed %v\n", counter.MsgTypes())
}

// printingObserver writes stream and error output to the terminal,
// colorized by channel.
type printingObserver struct{}

func (printingObserver) Observe(resp protocol.Response) {
	switch r := resp.(type) {
	case protocol.StreamResponse:
		if r.Name == "stderr" {
			color.New(color.FgRed).Print(r.Text)
		} else {
			color.New(color.FgWhite).Print(r.Text)
		}
	case protocol.ExecuteResultResponse:
		if text, ok := r.Data["text/plain"].(string); ok {
			color.New(color.FgGreen).Println(text)
		}
	case protocol.ErrorResponse:
		color.New(color.FgRed).Printf("%s: %s\n", r.Ename, r.Evalue)
	}
}
