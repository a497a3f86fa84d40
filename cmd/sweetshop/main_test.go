package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/pkg/config"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "seed-admin"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q, got %v (%v)", name, cmd, err)
		}
	}

	seed, _, _ := root.Find([]string{"seed-admin"})
	for _, flag := range []string{"email", "password"} {
		if seed.Flags().Lookup(flag) == nil {
			t.Fatalf("seed-admin is missing --%s", flag)
		}
	}
}

func TestRootCommand_Help(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "seed-admin") {
		t.Fatalf("help should list seed-admin, got %s", out.String())
	}
}

func TestOpenStores_Memory(t *testing.T) {
	cfg := &config.Config{Store: config.StoreMemory}
	st, err := openStores(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.Close()

	if st.users == nil || st.sweets == nil || st.movements == nil {
		t.Fatal("expected memory repositories")
	}
	if st.guard != nil || len(st.probes) != 0 {
		t.Fatal("memory store without redis has no guard and no probes")
	}
}
