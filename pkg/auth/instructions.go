package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteTokenGuide prints how to obtain and store a feed token.
func WriteTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "FEED TOKEN SETUP")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "mediafetch authenticates to the message feed with a bearer token.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Create an API token for your account in the feed's settings page.")
	fmt.Fprintln(w, "   It needs read access to the channel you want to fetch from.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "2. Store it under a name:")
	fmt.Fprintln(w, "     mediafetch auth login --account work")
	fmt.Fprintln(w, "   The token is read without echo and saved to the system keychain,")
	fmt.Fprintln(w, "   or to an encrypted file when no keychain is available.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "3. Select it for a run with --account work, source.account in the")
	fmt.Fprintln(w, "   config file, or export "+EnvToken+" for one-off use.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
}
