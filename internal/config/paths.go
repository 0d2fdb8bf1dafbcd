package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// expandUserPath resolves a directory taken from a config file or the
// environment. $VAR and ${VAR} expand everywhere, %VAR% only on Windows,
// and a leading ~ then becomes the home directory.
func expandUserPath(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = expandPercentVars(p, os.LookupEnv)
	}
	return expandHome(p)
}

// expandHome replaces a leading "~" or "~/" (also "~\" on Windows) with the
// home directory. "~user" forms are left alone.
func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~")
	if !ok {
		return p
	}
	if rest != "" && rest[0] != '/' && !(runtime.GOOS == "windows" && rest[0] == '\\') {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if rest == "" {
		return home
	}
	return filepath.Join(home, rest[1:])
}

// expandPercentVars substitutes %NAME% with lookup(NAME). "%%" is a literal
// percent sign; unknown names and an unmatched % are kept as written.
func expandPercentVars(p string, lookup func(string) (string, bool)) string {
	if !strings.Contains(p, "%") {
		return p
	}
	var b strings.Builder
	for {
		start := strings.IndexByte(p, '%')
		if start < 0 {
			b.WriteString(p)
			return b.String()
		}
		b.WriteString(p[:start])
		end := strings.IndexByte(p[start+1:], '%')
		if end < 0 {
			b.WriteString(p[start:])
			return b.String()
		}
		name := p[start+1 : start+1+end]
		switch val, ok := lookup(name); {
		case name == "":
			b.WriteByte('%')
		case ok:
			b.WriteString(val)
		default:
			b.WriteString(p[start : start+end+2])
		}
		p = p[start+end+2:]
	}
}
