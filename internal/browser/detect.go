package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ExecPathEnv may point at a browser binary and takes precedence over the
// well-known install locations.
const ExecPathEnv = "CHROME_PATH"

// pathNames are looked up in PATH after the fixed candidates.
var pathNames = []string{"google-chrome", "chromium", "chromium-browser", "chrome"}

// DetectBrowser returns the path of an installed Chrome/Chromium, or an
// empty string when none is found.
func DetectBrowser() string {
	candidates := append([]string{os.Getenv(ExecPathEnv)}, platformCandidates(runtime.GOOS)...)
	return detectFrom(candidates, pathNames, exec.LookPath)
}

func detectFrom(candidates, names []string, lookPath func(string) (string, error)) string {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		expanded := os.ExpandEnv(path)
		if info, err := os.Stat(expanded); err == nil && !info.IsDir() {
			return expanded
		}
	}
	for _, name := range names {
		if path, err := lookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// platformCandidates lists Chrome, Chromium then Edge install paths for goos.
func platformCandidates(goos string) []string {
	switch goos {
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		localAppData := os.Getenv("LOCALAPPDATA")
		return []string{
			filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(localAppData, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(localAppData, "Chromium", "Application", "chrome.exe"),
			filepath.Join(programFilesX86, "Microsoft", "Edge", "Application", "msedge.exe"),
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		}
	default:
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
			"/usr/bin/microsoft-edge-stable",
		}
	}
}
