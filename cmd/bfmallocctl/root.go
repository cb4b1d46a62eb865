// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "bfmallocctl",
		Short: "Replay an allocator trace against a bfmalloc heap",
	}

	root.PersistentFlags().Int("heap-size", 64<<20, "bytes of address space to reserve for the heap")
	root.PersistentFlags().Bool("verbose", false, "print each block while checking the heap")
	_ = v.BindPFlag("heap-size", root.PersistentFlags().Lookup("heap-size"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	v.SetEnvPrefix("BFMALLOCCTL")
	v.AutomaticEnv()

	root.AddCommand(newRunCmd(v))
	return root
}
