package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the command that opens target with the desktop's default handler.
func browserCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens a resolved media URL in the default system browser.
//
// Only absolute http(s) URLs are accepted so arbitrary strings never reach the shell helper.
func OpenBrowser(target string) error {
	if !IsAbsoluteURL(target) {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidArgument, target)
	}

	cmd, err := browserCommand(getRuntime(), target)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
