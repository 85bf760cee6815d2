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

// Command taskmand serves a taskman registry over HTTP.
//
// The flags are
//
//	-a <address>	- listen address, default 127.0.0.1:8321
//	-n <name>	- registry name
//	-c <capacity>	- maximum number of entries
//	-p <policy>	- add policy used when a request names none
//	-s <file>	- YAML manifest of entries to create at startup
//	--config <file>	- YAML config file, default ./taskmand.yaml
//
// Settings may also be given as TASKMAN_ADDR, TASKMAN_CAPACITY and so
// forth.  Authentication is configured with auth.user and auth.hash; use
// "taskmand hash <password>" to produce the latter.
package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdamore/taskman"
	"github.com/gdamore/taskman/rest"
)

var (
	cfgFile string
	v       = newViper()
)

var rootCmd = &cobra.Command{
	Use:          "taskmand",
	Short:        "Serve a bounded task registry over HTTP",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         serve,
}

var hashCmd = &cobra.Command{
	Use:   "hash <password>",
	Short: "Print a bcrypt hash suitable for auth.hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	d := Defaults()
	f := rootCmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (default ./taskmand.yaml)")
	f.StringP("addr", "a", d.Addr, "listen address")
	f.StringP("name", "n", d.Name, "registry name")
	f.IntP("capacity", "c", d.Capacity, "maximum number of entries")
	f.StringP("policy", "p", d.Policy, "default add policy (reject, fifo, priority)")
	f.StringP("seed", "s", d.Seed, "manifest of entries to create at startup")
	for _, name := range []string{"addr", "name", "capacity", "policy", "seed"} {
		if err := v.BindPFlag(name, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(hashCmd)
}

func seed(reg *taskman.Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	m, err := taskman.LoadManifest(f)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	added, err := m.Apply(reg)
	log.Printf("Seeded %d entries from %s", len(added), path)
	return err
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(v, cfgFile)
	if err != nil {
		return err
	}

	reg, err := taskman.NewRegistry(cfg.Name, cfg.Capacity)
	if err != nil {
		return err
	}
	reg.SetLogger(log.New(os.Stderr, cfg.Name+": ", log.LstdFlags))

	if cfg.Seed != "" {
		if err := seed(reg, cfg.Seed); err != nil {
			return err
		}
	}

	h := rest.NewHandler(reg)
	if err := h.SetDefaultPolicy(cfg.AddPolicy()); err != nil {
		return err
	}
	if cfg.Auth.User != "" {
		h.SetAuth(cfg.Auth.User, []byte(cfg.Auth.Hash))
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: h}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	log.Printf("Serving %s (capacity %d) on %s", cfg.Name, cfg.Capacity, cfg.Addr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Wait for a termination signal, and shutdown cleanly if we get it.
	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigs:
		log.Printf("Got %v, shutting down", sig)
		srv.Close()
	}
	reg.KillAll()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
