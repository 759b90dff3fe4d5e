package collector

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"logsift/internal/config"

	"github.com/pkg/sftp"
	"github.com/pterm/pterm"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// RemoteFS is the part of a remote file transfer session the collector needs
type RemoteFS interface {
	ReadDir(dir string) ([]os.FileInfo, error)
	Open(name string) (io.ReadCloser, error)
}

// SFTPSession is a RemoteFS over an SSH connection
type SFTPSession struct {
	conn   *ssh.Client
	client *sftp.Client
}

// DialSFTP opens an SSH connection with password authentication and starts an SFTP session on it
func DialSFTP(cfg config.RemoteConfig, logger *pterm.Logger) (*SFTPSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsPath != "" {
		cb, err := knownhosts.New(cfg.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known hosts %s: %w", cfg.KnownHostsPath, err)
		}
		hostKeyCallback = cb
	} else {
		logger.Warn("SFTP_KNOWN_HOSTS not set, the remote host key will not be verified",
			logger.Args("host", cfg.Host))
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	logger.Debug("Connecting to remote host", logger.Args("addr", addr, "user", cfg.Username))

	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("start sftp session: %w", err)
	}

	logger.Info("SFTP session opened", logger.Args("addr", addr))
	return &SFTPSession{conn: conn, client: client}, nil
}

// ReadDir lists a remote directory
func (s *SFTPSession) ReadDir(dir string) ([]os.FileInfo, error) {
	return s.client.ReadDir(dir)
}

// Open opens a remote file for reading
func (s *SFTPSession) Open(name string) (io.ReadCloser, error) {
	f, err := s.client.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Close ends the SFTP session and the SSH connection
func (s *SFTPSession) Close() error {
	sftpErr := s.client.Close()
	if err := s.conn.Close(); err != nil {
		return err
	}
	return sftpErr
}
