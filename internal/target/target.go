package target

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Target represents a single remote destination. Host strings are opaque:
// they are interpolated literally into the transport invocation, so
// anything the underlying client accepts (hostname, IP, ssh_config alias)
// is a valid host.
type Target struct {
	User string // remote username, shared by every host in a run
	Host string // host identifier as given on the command line or hosts file
}

// Addr returns the user@host form used for the transport invocation.
func (t Target) Addr() string {
	return t.User + "@" + t.Host
}

// FromHosts builds the target list from inline host arguments, in given
// order. Duplicates are kept: a host named twice is dispatched twice.
func FromHosts(user string, hosts []string) []Target {
	targets := make([]Target, 0, len(hosts))
	for _, h := range hosts {
		targets = append(targets, Target{User: user, Host: h})
	}
	return targets
}

// FromHostsFile reads one host per line from filename, in file order.
// Every line becomes an entry, including blank ones; no trimming,
// no comment handling, no de-duplication. A file with N lines yields
// exactly N targets.
func FromHostsFile(user, filename string) ([]Target, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open hosts file '%s': %w", filename, err)
	}
	defer file.Close()

	return fromReader(user, file)
}

func fromReader(user string, reader io.Reader) ([]Target, error) {
	scanner := bufio.NewScanner(reader)
	targets := make([]Target, 0)

	for scanner.Scan() {
		targets = append(targets, Target{User: user, Host: scanner.Text()})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading hosts: %w", err)
	}

	return targets, nil
}
