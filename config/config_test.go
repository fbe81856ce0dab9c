package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/arena")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RPC_ENDPOINT", "https://rpc.test")
	t.Setenv("WALLET_LINK_SECRET", "secret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("COLLECTION_ALIASES", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.ServerPort)
	}
	if len(cfg.CollectionAliases) != 0 {
		t.Fatalf("expected no aliases, got %v", cfg.CollectionAliases)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("missing OPENAI_API_KEY must fail")
	}
}

func TestLoadParsesAliasList(t *testing.T) {
	setRequired(t)
	t.Setenv("COLLECTION_ALIASES", "mad-lads, degods ,, okay-bears")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"mad-lads", "degods", "okay-bears"}
	if len(cfg.CollectionAliases) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.CollectionAliases)
	}
	for i := range want {
		if cfg.CollectionAliases[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfg.CollectionAliases)
		}
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	setRequired(t)

	for _, port := range []string{"not-a-port", "0", "70000"} {
		t.Setenv("SERVER_PORT", port)
		if _, err := Load(); err == nil {
			t.Fatalf("port %q must be rejected", port)
		}
	}
}
