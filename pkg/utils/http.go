package utils

import "io"

// maxDrain bounds how much of an unread response body is discarded before
// closing. Larger bodies are closed without draining and the connection is
// not reused.
const maxDrain = 64 << 10

// DrainAndClose discards up to 64KiB of rc and closes it.
func DrainAndClose(rc io.ReadCloser) error {
	if rc == nil {
		return nil
	}
	_, _ = io.CopyN(io.Discard, rc, maxDrain)
	return rc.Close()
}
