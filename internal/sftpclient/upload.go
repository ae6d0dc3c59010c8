// Package sftpclient uploads exported result files to an SFTP drop.
package sftpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"job-aggregator/internal/config"
)

// Config is where exported files are dropped.
type Config struct {
	Host                  string
	Port                  int
	User                  string
	Pass                  string
	RemoteDir             string
	InsecureIgnoreHostKey bool
	KnownHostsFile        string
}

func FromConfig(c config.Config) Config {
	return Config{
		Host:                  c.SFTPHost,
		Port:                  c.SFTPPort,
		User:                  c.SFTPUser,
		Pass:                  c.SFTPPass,
		RemoteDir:             c.SFTPDir,
		InsecureIgnoreHostKey: c.SFTPInsecureIgnoreHostKey,
		KnownHostsFile:        c.SFTPKnownHosts,
	}
}

// ErrMissingCredentials means the SFTP drop is not configured.
var ErrMissingCredentials = errors.New("sftp: missing env SFTP_HOST / SFTP_USER / SFTP_PASS")

func (cfg Config) withDefaults() Config {
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}
	return cfg
}

func (cfg Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if cfg.KnownHostsFile == "" {
		return nil, errors.New("sftp: host key checking enabled but SFTP_KNOWN_HOSTS is empty")
	}
	cb, err := knownhosts.New(cfg.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("sftp: known hosts: %w", err)
	}
	return cb, nil
}

// Uploader is one authenticated SFTP session.
type Uploader struct {
	ssh *ssh.Client
	cli *sftp.Client
	dir string
}

// Dial connects and authenticates, and makes sure the remote directory
// exists. The TCP dial honours ctx; the SSH handshake is bounded by a
// fixed deadline on the connection.
func Dial(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return nil, ErrMissingCredentials
	}
	cfg = cfg.withDefaults()

	cb, err := cfg.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	d := net.Dialer{Timeout: handshakeTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sftp: dial %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Pass)},
		HostKeyCallback: cb,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp: handshake %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})
	sshClient := ssh.NewClient(c, chans, reqs)

	cli, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp: start session: %w", err)
	}
	if err := cli.MkdirAll(cfg.RemoteDir); err != nil {
		cli.Close()
		sshClient.Close()
		return nil, fmt.Errorf("sftp: mkdir %s: %w", cfg.RemoteDir, err)
	}
	return &Uploader{ssh: sshClient, cli: cli, dir: cfg.RemoteDir}, nil
}

const handshakeTimeout = 20 * time.Second

// Put copies localPath to name under the remote directory.
func (u *Uploader) Put(ctx context.Context, localPath, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sftp: upload canceled: %w", err)
	}
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("sftp: %w", err)
	}
	defer src.Close()

	remote := path.Join(u.dir, name)
	dst, err := u.cli.Create(remote)
	if err != nil {
		return fmt.Errorf("sftp: create %s: %w", remote, err)
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return fmt.Errorf("sftp: write %s: %w", remote, err)
	}
	return nil
}

func (u *Uploader) Close() error {
	err := u.cli.Close()
	if cerr := u.ssh.Close(); err == nil {
		err = cerr
	}
	return err
}

// UploadFiles puts every local path under its base name over one session.
func UploadFiles(ctx context.Context, cfg Config, localPaths ...string) error {
	u, err := Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer u.Close()

	for _, p := range localPaths {
		if err := u.Put(ctx, p, filepath.Base(p)); err != nil {
			return err
		}
	}
	return nil
}
