// ldn - a Linked Data Notifications inbox client.
//
// ldn reads LDN inboxes on Solid pods, decodes their notifications into
// ActivityStreams activities and sends replies as JSON-LD.
package main

import (
	"fmt"
	"os"

	"github.com/phochste/AcmeInboxViewer/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
