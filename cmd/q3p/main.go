// Command q3p provisions, inspects and tears down the AWS resources that
// receive Amazon Q Developer third-party usage logs.
package main

import (
	"fmt"
	"os"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/log"
)

func main() {
	log.Init()
	if err := newRootCmd(awsclient.NewClientSet).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
