// Package shell detects the user's active shell and how to run an inline command with it.
package shell

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Shell identifies a known shell variant
type Shell int

const (
	Unknown Shell = iota
	Powershell
	BourneAgainShell
	Zsh
	Fish
	DebianAlmquistShell
	KornShell
	CShell
)

// Detect resolves the shell for the current process environment
func Detect() Shell {
	return DetectFrom(os.Getenv, runtime.GOOS)
}

// DetectFrom resolves the shell from $SHELL, falling back to the host OS default
func DetectFrom(getenv func(string) string, goos string) Shell {
	if s := FromPath(getenv("SHELL")); s != Unknown {
		return s
	}
	if goos == "windows" {
		return Powershell
	}
	return Unknown
}

// FromPath maps a shell executable path such as /usr/bin/zsh to a Shell
func FromPath(path string) Shell {
	if path == "" {
		return Unknown
	}
	// $SHELL may use either separator under Git Bash / MSYS
	name := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")

	switch name {
	case "powershell", "pwsh":
		return Powershell
	case "bash":
		return BourneAgainShell
	case "zsh":
		return Zsh
	case "fish":
		return Fish
	case "dash":
		return DebianAlmquistShell
	case "ksh", "mksh", "ksh93":
		return KornShell
	case "csh", "tcsh":
		return CShell
	default:
		return Unknown
	}
}

// Invocation returns the executable and the flag that runs an inline command string
func (s Shell) Invocation() (string, string) {
	switch s {
	case Powershell:
		return "powershell", "-Command"
	case BourneAgainShell:
		return "bash", "-c"
	case Zsh:
		return "zsh", "-c"
	case Fish:
		return "fish", "-c"
	case DebianAlmquistShell:
		return "dash", "-c"
	case KornShell:
		return "ksh", "-c"
	case CShell:
		return "csh", "-c"
	default:
		return "sh", "-c"
	}
}

// Description names the shell the way the generation prompt refers to it
func (s Shell) Description() string {
	switch s {
	case Powershell:
		return "Windows PowerShell"
	case BourneAgainShell:
		return "Bourne Again Shell (bash / sh)"
	case Zsh:
		return "Z Shell (zsh)"
	case Fish:
		return "Friendly Interactive Shell (fish)"
	case DebianAlmquistShell:
		return "Debian Almquist Shell (dash)"
	case KornShell:
		return "Korn Shell (ksh)"
	case CShell:
		return "C Shell (csh)"
	default:
		return "POSIX shell (sh)"
	}
}

func (s Shell) String() string {
	switch s {
	case Powershell:
		return "powershell"
	case BourneAgainShell:
		return "bash"
	case Zsh:
		return "zsh"
	case Fish:
		return "fish"
	case DebianAlmquistShell:
		return "dash"
	case KornShell:
		return "ksh"
	case CShell:
		return "csh"
	default:
		return "unknown"
	}
}
