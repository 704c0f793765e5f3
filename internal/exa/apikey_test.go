package exa

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func keySourcesForTest(t *testing.T, env map[string]string) KeySources {
	t.Helper()
	home := t.TempDir()
	return KeySources{
		Getenv:    func(k string) string { return env[k] },
		Home:      home,
		CacheFile: filepath.Join(home, ".cache", "ninjaexa_api_key"),
		CacheTTL:  24 * time.Hour,
		GOOS:      "linux",
		Now:       time.Now,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestResolveAPIKeyPrefersEnvironment(t *testing.T) {
	src := keySourcesForTest(t, map[string]string{APIKeyEnv: " env-key "})
	writeFile(t, src.CacheFile, "cached-key")

	require.Equal(t, "env-key", ResolveAPIKey(src))
}

func TestResolveAPIKeyUsesFreshCache(t *testing.T) {
	src := keySourcesForTest(t, nil)
	writeFile(t, src.CacheFile, "cached-key\n")

	require.Equal(t, "cached-key", ResolveAPIKey(src))
}

func TestResolveAPIKeyIgnoresExpiredCache(t *testing.T) {
	src := keySourcesForTest(t, nil)
	writeFile(t, src.CacheFile, "stale-key")
	old := time.Now().Add(-25 * time.Hour)
	require.NoError(t, os.Chtimes(src.CacheFile, old, old))

	require.Empty(t, ResolveAPIKey(src))
}

func TestResolveAPIKeyFromBashFiles(t *testing.T) {
	src := keySourcesForTest(t, nil)
	writeFile(t, filepath.Join(src.Home, ".bash", "aliases.sh"), "alias ll='ls -l'\n")
	writeFile(t, filepath.Join(src.Home, ".bash", "secrets.sh"), `#!/bin/bash
# export EXA_API_KEY="commented-out"
if [ -z "$EXA_API_KEY" ]; then
  export EXA_API_KEY="abc-123_XYZ"
fi
`)

	require.Equal(t, "abc-123_XYZ", ResolveAPIKey(src))

	cached, err := os.ReadFile(src.CacheFile)
	require.NoError(t, err)
	require.Equal(t, "abc-123_XYZ", string(cached))
}

func TestKeyFromShellLine(t *testing.T) {
	require.Equal(t, "k1", keyFromShellLine(`export EXA_API_KEY=k1`))
	require.Equal(t, "k2", keyFromShellLine(`EXA_API_KEY='k2'`))
	require.Equal(t, "k3", keyFromShellLine(`export EXA_API_KEY="k3" # personal`))
	require.Empty(t, keyFromShellLine(`export OTHER_KEY=abc`))
	require.Empty(t, keyFromShellLine(`export EXA_API_KEY="has space"`))
}

func TestResolveAPIKeyPowerShellOnlyOnWindows(t *testing.T) {
	src := keySourcesForTest(t, nil)
	writeFile(t, filepath.Join(src.Home, "Documents", "PowerShell", "Microsoft.PowerShell_profile.ps1"),
		"# profile\n$env:EXA_API_KEY = \"ps-key-7\"\n")

	require.Empty(t, ResolveAPIKey(src))

	src.GOOS = "windows"
	require.Equal(t, "ps-key-7", ResolveAPIKey(src))
}

func TestResolveAPIKeyNothingFound(t *testing.T) {
	src := keySourcesForTest(t, nil)
	require.Empty(t, ResolveAPIKey(src))
	_, err := os.Stat(src.CacheFile)
	require.True(t, os.IsNotExist(err))
}
