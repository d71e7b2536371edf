package commands

import "testing"

func TestResolveListenAddr_EnvAppliesWhenFlagsUnset(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")

	host, port := resolveListenAddr("127.0.0.1", false, 8080, false)

	if host != "0.0.0.0" {
		t.Errorf("host = %q, want env value", host)
	}
	if port != 9090 {
		t.Errorf("port = %d, want env value", port)
	}
}

func TestResolveListenAddr_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")

	host, port := resolveListenAddr("10.0.0.5", true, 8443, true)

	if host != "10.0.0.5" || port != 8443 {
		t.Errorf("got %s:%d, explicit flags must win", host, port)
	}
}

func TestResolveListenAddr_DefaultsWhenNothingSet(t *testing.T) {
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")

	host, port := resolveListenAddr("127.0.0.1", false, 8080, false)

	if host != "127.0.0.1" || port != 8080 {
		t.Errorf("got %s:%d, want flag defaults", host, port)
	}
}
