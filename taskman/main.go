// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command taskman is a client for taskmand.  It uses subcommands, and
// runs a full screen interface when none is given.
//
// The flags are
//
//	-a <address>	- server address, default is http://127.0.0.1:8321
//	-u <user:pass>	- user name & password for basic auth
//
// Subcommands are
//
//	info                        - show registry summary
//	list [--order time|priority|id]
//	                            - list entries
//	add <priority> [--policy p] - add an entry
//	kill <id> ...               - kill the named entries
//	kill --priority <p>         - kill every entry with a priority
//	kill --all                  - kill every entry
//	log [--follow]              - show the registry log
//	ui [--log <file>]           - full screen interface
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/context"

	"github.com/gdamore/taskman"
	"github.com/gdamore/taskman/rest"
	"github.com/gdamore/taskman/taskman/util"
)

type options struct {
	addr string
	auth string
}

func (o *options) client() (*rest.Client, error) {
	client := rest.NewClient(nil, o.addr)
	if o.auth != "" {
		a := strings.SplitN(o.auth, ":", 2)
		if len(a) != 2 {
			return nil, errors.New("Bad user:pass supplied")
		}
		client.SetAuth(a[0], a[1])
	}
	return client, nil
}

func printLog(w io.Writer, recs []rest.LogRecord) {
	for _, r := range recs {
		fmt.Fprintf(w, "%s %s\n", r.Time.Format(time.StampMilli), r.Text)
	}
}

func newInfoCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show registry summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, e := o.client()
			if e != nil {
				return e
			}
			info, e := client.Info()
			if e != nil {
				return e
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:      %s\n", info.Name)
			fmt.Fprintf(w, "Entries:   %d/%d\n", info.Size, info.Capacity)
			fmt.Fprintf(w, "Created:   %v\n", info.CreateTime.Format(time.RFC3339))
			fmt.Fprintf(w, "Updated:   %v\n", info.UpdateTime.Format(time.RFC3339))
			return nil
		},
	}
}

func newListCmd(o *options) *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, e := taskman.ParseListOption(order)
			if e != nil {
				return e
			}
			client, e := o.client()
			if e != nil {
				return e
			}
			items, e := client.List(opt)
			if e != nil {
				return e
			}
			now := time.Now()
			for _, item := range items {
				fmt.Fprintln(cmd.OutOrStdout(), util.FormatEntry(item, now))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&order, "order", "o", "time", "order: time, priority or id")
	return cmd
}

func newAddCmd(o *options) *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "add <priority>",
		Short: "Add an entry with the given priority (low, medium, high)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, e := taskman.ParsePriority(args[0])
			if e != nil {
				return e
			}
			var pol taskman.AddPolicy
			if policy != "" {
				if pol, e = taskman.ParsePolicy(policy); e != nil {
					return e
				}
			}
			client, e := o.client()
			if e != nil {
				return e
			}
			res, e := client.Add(p, pol)
			if e != nil {
				return e
			}
			if !res.Admitted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s discarded\n", res.Entry.ID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Entry.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&policy, "policy", "p", "", "policy when full: reject, fifo or priority (default server's)")
	return cmd
}

func newKillCmd(o *options) *cobra.Command {
	var priority string
	var all bool
	cmd := &cobra.Command{
		Use:   "kill [<id> ...]",
		Short: "Kill entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 0
			if len(args) > 0 {
				n++
			}
			if priority != "" {
				n++
			}
			if all {
				n++
			}
			if n != 1 {
				return errors.New("Specify exactly one of ids, --priority, or --all")
			}
			client, e := o.client()
			if e != nil {
				return e
			}
			switch {
			case all:
				return client.KillAll()
			case priority != "":
				p, e := taskman.ParsePriority(priority)
				if e != nil {
					return e
				}
				return client.KillPriority(p)
			}
			for _, id := range args {
				if e := client.Kill(id); e != nil {
					return fmt.Errorf("%s: %w", id, e)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "kill every entry with this priority")
	cmd.Flags().BoolVar(&all, "all", false, "kill every entry")
	return cmd
}

func newLogCmd(o *options) *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the registry log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, e := o.client()
			if e != nil {
				return e
			}
			info, e := client.GetLog()
			if e != nil {
				return e
			}
			w := cmd.OutOrStdout()
			printLog(w, info.Records)
			if !follow {
				return nil
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			for {
				next, e := client.WatchLog(ctx, info)
				if e != nil {
					return e
				}
				printLog(w, newRecords(info.Records, next.Records))
				info = next
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new records")
	return cmd
}

// newRecords returns the records of next that follow the last record
// of prev.  If the ring has moved past prev entirely, all of next is new.
func newRecords(prev, next []rest.LogRecord) []rest.LogRecord {
	if len(prev) == 0 {
		return next
	}
	last := prev[len(prev)-1].Id
	for i, r := range next {
		if r.Id == last {
			return next[i+1:]
		}
	}
	return next
}

func newUICmd(o *options) *cobra.Command {
	var logfile string
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Run the full screen interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, e := o.client()
			if e != nil {
				return e
			}
			var logger *log.Logger
			if logfile != "" {
				f, e := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
				if e != nil {
					return e
				}
				defer f.Close()
				logger = log.New(f, "", log.LstdFlags)
			}
			return doUI(client, o.addr, logger)
		},
	}
	cmd.Flags().StringVar(&logfile, "log", "", "file to log user interface activity to")
	return cmd
}

func newRootCmd() *cobra.Command {
	o := &options{addr: "http://127.0.0.1:8321"}
	uiCmd := newUICmd(o)
	root := &cobra.Command{
		Use:          "taskman",
		Short:        "Client for a taskmand registry",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return uiCmd.RunE(uiCmd, args)
		},
	}
	root.PersistentFlags().StringVarP(&o.addr, "addr", "a", o.addr, "taskmand address")
	root.PersistentFlags().StringVarP(&o.auth, "user", "u", "", "user:pass authentication")
	root.AddCommand(newInfoCmd(o), newListCmd(o), newAddCmd(o),
		newKillCmd(o), newLogCmd(o), uiCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
