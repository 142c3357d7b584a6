//go:build linux && cgo

package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/msteinert/pam/v2"
	"golang.org/x/term"
)

// PAMAuthenticator verifies credentials through the system PAM stack.
// Prompts and messages go to the operator's error channel; password
// input is read without echo.
type PAMAuthenticator struct {
	// Service is the PAM service name.
	Service string
}

// NewPAMAuthenticator creates an authenticator for the given PAM
// service.
func NewPAMAuthenticator(service string) *PAMAuthenticator {
	return &PAMAuthenticator{Service: service}
}

// Authenticate implements Authenticator. A PAM denial or an operator
// abort yields a false verdict; errors are reserved for conversation
// and transaction faults.
func (a *PAMAuthenticator) Authenticate(username string) (bool, error) {
	tx, err := pam.StartFunc(a.Service, username, converse)
	if err != nil {
		return false, fmt.Errorf("starting PAM transaction: %w", err)
	}
	defer func() {
		_ = tx.End()
	}()

	if err := tx.Authenticate(0); err != nil {
		return false, nil
	}
	if err := tx.AcctMgmt(0); err != nil {
		return false, nil
	}
	return true, nil
}

// converse answers PAM conversation messages on the controlling
// terminal.
func converse(style pam.Style, msg string) (string, error) {
	switch style {
	case pam.PromptEchoOff:
		fmt.Fprint(os.Stderr, msg)
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading credential: %w", err)
		}
		return string(secret), nil

	case pam.PromptEchoOn:
		fmt.Fprint(os.Stderr, msg)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading response: %w", err)
		}
		return strings.TrimSuffix(line, "\n"), nil

	case pam.ErrorMsg, pam.TextInfo:
		fmt.Fprintln(os.Stderr, msg)
		return "", nil
	}

	return "", errors.New("unsupported PAM conversation style")
}
