package exa

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable holding the Exa API key.
const APIKeyEnv = "EXA_API_KEY"

var (
	validKey        = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	powershellKeyRe = regexp.MustCompile(`\$env:EXA_API_KEY\s*=\s*["']([A-Za-z0-9_-]+)["']`)
)

// KeySources controls where ResolveAPIKey looks.
type KeySources struct {
	Getenv    func(string) string
	Home      string
	CacheFile string
	CacheTTL  time.Duration
	GOOS      string
	Now       func() time.Time
}

// DefaultKeySources reads the process environment and the user's home.
func DefaultKeySources(cacheFile string, ttl time.Duration) KeySources {
	home, _ := os.UserHomeDir()
	return KeySources{
		Getenv:    os.Getenv,
		Home:      home,
		CacheFile: cacheFile,
		CacheTTL:  ttl,
		GOOS:      runtime.GOOS,
		Now:       time.Now,
	}
}

// ResolveAPIKey returns the first key found in, in order: the environment,
// the key cache, ~/.bash/*.sh exports and (on Windows) PowerShell profiles.
// Keys found in files are written to the cache. Returns "" when none exists.
func ResolveAPIKey(src KeySources) string {
	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if key := strings.TrimSpace(getenv(APIKeyEnv)); key != "" {
		return key
	}

	if key := src.readCachedKey(); key != "" {
		return key
	}

	key := searchBashFiles(src.Home)
	if key == "" && src.GOOS == "windows" {
		key = searchPowerShellProfiles(src.Home)
	}
	if key != "" {
		src.writeCachedKey(key)
	}
	return key
}

func (src KeySources) readCachedKey() string {
	if src.CacheFile == "" {
		return ""
	}
	info, err := os.Stat(src.CacheFile)
	if err != nil {
		return ""
	}
	now := time.Now
	if src.Now != nil {
		now = src.Now
	}
	if src.CacheTTL > 0 && now().Sub(info.ModTime()) >= src.CacheTTL {
		return ""
	}
	data, err := os.ReadFile(src.CacheFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (src KeySources) writeCachedKey(key string) {
	if src.CacheFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(src.CacheFile), 0o700); err != nil {
		return
	}
	_ = os.WriteFile(src.CacheFile, []byte(key), 0o600)
}

// searchBashFiles scans ~/.bash/*.sh for an EXA_API_KEY assignment. Each
// candidate line is parsed on its own so unrelated shell syntax is ignored.
func searchBashFiles(home string) string {
	if home == "" {
		return ""
	}
	files, err := filepath.Glob(filepath.Join(home, ".bash", "*.sh"))
	if err != nil {
		return ""
	}
	for _, file := range files {
		if key := scanFile(file, keyFromShellLine); key != "" {
			return key
		}
	}
	return ""
}

func keyFromShellLine(line string) string {
	if !strings.Contains(line, APIKeyEnv) {
		return ""
	}
	env, err := godotenv.Unmarshal(line)
	if err != nil {
		return ""
	}
	key := strings.TrimSpace(env[APIKeyEnv])
	if !validKey.MatchString(key) {
		return ""
	}
	return key
}

func searchPowerShellProfiles(home string) string {
	if home == "" {
		return ""
	}
	profiles := []string{
		filepath.Join(home, "Documents", "WindowsPowerShell", "Microsoft.PowerShell_profile.ps1"),
		filepath.Join(home, "Documents", "PowerShell", "Microsoft.PowerShell_profile.ps1"),
	}
	for _, profile := range profiles {
		if key := scanFile(profile, keyFromPowerShellLine); key != "" {
			return key
		}
	}
	return ""
}

func keyFromPowerShellLine(line string) string {
	match := powershellKeyRe.FindStringSubmatch(line)
	if match == nil {
		return ""
	}
	return match[1]
}

// scanFile applies extract to every non-comment line of path and returns the
// first non-empty result. Unreadable files yield "".
func scanFile(path string, extract func(string) string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close() // nolint:errcheck // read-only

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key := extract(line); key != "" {
			return key
		}
	}
	return ""
}
