package lib

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Commands maps a command name like "network-ensure" to its entrypoint. Each
// file under cmd/ registers itself here from init().
var Commands = make(map[string]func())

// Args holds the go-arg args struct for each command, used for usage listings.
var Args = make(map[string]any)

func Contains(parts []string, part string) bool {
	for _, p := range parts {
		if p == part {
			return true
		}
	}
	return false
}

func Last(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func PreviewString(preview bool) string {
	if preview {
		return "preview: "
	}
	return ""
}

var promptReader = bufio.NewReader(os.Stdin)

// ErrAborted is returned by PromptProceed when the operator declines. Callers
// treat it as a graceful abort, not a failure.
var ErrAborted = fmt.Errorf("aborted")

// PromptProceed asks a yes/no question on stderr and returns ErrAborted unless
// the reply is affirmative. Anything other than y/yes aborts.
func PromptProceed(msg string) error {
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	fmt.Fprint(os.Stderr, "proceed? y/n: ")
	line, err := promptReader.ReadString('\n')
	if err != nil {
		return ErrAborted
	}
	reply := strings.ToLower(strings.TrimSpace(line))
	if reply != "y" && reply != "yes" {
		return ErrAborted
	}
	return nil
}
