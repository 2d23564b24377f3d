package connection

import (
	"net"
	"path/filepath"
	"strconv"

	"github.com/yndnr/warmd-go/internal/infra/portlock"
)

// DiscoverPort reads the port published in root's discovery file.
func DiscoverPort(root, lockFile string) (int, error) {
	if err := portlock.ValidateName(lockFile); err != nil {
		return 0, err
	}
	return portlock.ReadPort(filepath.Join(root, lockFile))
}

// DiscoverAddr returns host:port for the server running under root.
func DiscoverAddr(host, root, lockFile string) (string, error) {
	port, err := DiscoverPort(root, lockFile)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
