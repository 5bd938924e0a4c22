package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lydakis/sitectl/internal/api"
	"github.com/lydakis/sitectl/internal/contact"
	"github.com/lydakis/sitectl/internal/response"
	"go.uber.org/zap"
)

var contactFlags = []string{"name", "email", "phone", "subject", "message"}

func runContact(ctx context.Context, sender contact.Sender, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h") {
		printContactHelp(stdout)
		return ExitOK
	}

	msg, err := parseContactArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitUsageErr
	}

	res, err := contact.NewSubmitter(sender, logger).Submit(ctx, msg)
	if err != nil {
		if fieldErrs := contact.FieldErrors(err); len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				fmt.Fprintf(stderr, "sitectl: %v\n", fe)
			}
			return ExitUsageErr
		}
		var rejected *contact.RejectedError
		if errors.As(err, &rejected) {
			fmt.Fprintf(stderr, "sitectl: %s\n", rejected.Message)
			return ExitRemoteErr
		}
		writeCallError(stderr, api.OpSendContact, err)
		return exitCodeFor(err)
	}

	stdout.Write(response.Render(res)) //nolint:errcheck
	return ExitOK
}

func parseContactArgs(args []string) (api.ContactMessage, error) {
	flags, err := parseFlags(args)
	if err != nil {
		return api.ContactMessage{}, err
	}

	known := make(map[string]bool, len(contactFlags))
	for _, name := range contactFlags {
		known[name] = true
	}
	for key := range flags {
		if !known[key] {
			return api.ContactMessage{}, fmt.Errorf("unknown contact flag: --%s", key)
		}
	}

	values := make(map[string]string, len(contactFlags))
	for _, name := range contactFlags {
		v, err := stringFlag(flags, name)
		if err != nil {
			return api.ContactMessage{}, err
		}
		values[name] = v
	}
	return api.ContactMessage{
		Name:    values["name"],
		Email:   values["email"],
		Phone:   values["phone"],
		Subject: values["subject"],
		Message: values["message"],
	}, nil
}

func printContactHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: sitectl contact --name NAME --email EMAIL --message TEXT [--phone P] [--subject S]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Validate and send a contact form message.")
	fmt.Fprintln(out, "Name, email and message are required. Phone numbers may contain spaces.")
}
