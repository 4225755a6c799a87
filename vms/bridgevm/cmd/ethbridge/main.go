// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	bvm "github.com/luxfi/ethbridge/vms/bridgevm"
	"github.com/luxfi/ethbridge/vms/bridgevm/cmd/keys"
	"github.com/luxfi/ethbridge/vms/bridgevm/cmd/watch"
)

func main() {
	cmd := &cobra.Command{
		Use:     "ethbridge",
		Short:   "Ethereum bridge tooling",
		Version: bvm.Version.String(),
	}
	cmd.AddCommand(
		watch.Command(),
		keys.Command(),
	)
	ctx := context.Background()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}
