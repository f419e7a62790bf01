// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package main

import (
	"fmt"
	"os"

	"github.com/routelab/ospf/internal/pkg/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("ospfdump " + version.Version())
		return
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
