package main

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// browserNavigator opens navigation targets in the user's browser. Relative
// targets are resolved against the local server.
type browserNavigator struct {
	base string
}

func (b browserNavigator) Navigate(target string) {
	if strings.HasPrefix(target, "/") {
		target = b.base + target
	}
	if err := openBrowser(target); err != nil {
		log.Warn().Err(err).Str("url", target).Msg("Unable to open a browser, open the URL manually")
	}
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
