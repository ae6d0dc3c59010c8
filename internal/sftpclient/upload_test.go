package sftpclient

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"job-aggregator/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Config{
		SFTPHost: "drop.test", SFTPPort: 2222, SFTPUser: "u", SFTPPass: "p",
		SFTPDir: "/inbound", SFTPInsecureIgnoreHostKey: true,
	})
	if cfg.Host != "drop.test" || cfg.Port != 2222 || cfg.RemoteDir != "/inbound" || !cfg.InsecureIgnoreHostKey {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{Host: "h", User: "u", Pass: "p"}.withDefaults()
	if cfg.Port != 22 {
		t.Errorf("Expected default Port 22, got %d", cfg.Port)
	}
	if cfg.RemoteDir != "/" {
		t.Errorf("Expected default RemoteDir '/', got %q", cfg.RemoteDir)
	}
}

func TestHostKeyCallback(t *testing.T) {
	if _, err := (Config{InsecureIgnoreHostKey: true}).hostKeyCallback(); err != nil {
		t.Errorf("Expected insecure callback, got %v", err)
	}
	if _, err := (Config{}).hostKeyCallback(); err == nil {
		t.Error("Expected error without known hosts file")
	}

	kh := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(kh, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (Config{KnownHostsFile: kh}).hostKeyCallback(); err != nil {
		t.Errorf("Expected known hosts callback, got %v", err)
	}
	if _, err := (Config{KnownHostsFile: kh + ".missing"}).hostKeyCallback(); err == nil {
		t.Error("Expected error for missing known hosts file")
	}
}

func TestUploadFilesValidation(t *testing.T) {
	ctx := context.Background()

	const (
		testHost = "127.0.0.1"
		testUser = "test-user"
		testPass = "test-pass"
		testFile = "jobs_result.json"
	)

	testCases := []struct {
		name          string
		cfg           Config
		errorIs       error
		errorContains string
	}{
		{
			name:    "Missing credentials",
			cfg:     Config{},
			errorIs: ErrMissingCredentials,
		},
		{
			name:          "Host key checking without known hosts",
			cfg:           Config{Host: testHost, User: testUser, Pass: testPass},
			errorContains: "SFTP_KNOWN_HOSTS",
		},
		{
			name:          "Nothing listening",
			cfg:           Config{Host: testHost, Port: 1, User: testUser, Pass: testPass, InsecureIgnoreHostKey: true},
			errorContains: "sftp: dial",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := UploadFiles(ctx, tc.cfg, testFile)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tc.errorIs != nil && !errors.Is(err, tc.errorIs) {
				t.Errorf("Expected %v, got %v", tc.errorIs, err)
			}
			if tc.errorContains != "" && !strings.Contains(err.Error(), tc.errorContains) {
				t.Errorf("Expected error to contain %q, got %q", tc.errorContains, err.Error())
			}
		})
	}
}

func TestUploadFilesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// 192.0.2.0/24 is reserved for documentation and never answers
	cfg := Config{Host: "192.0.2.1", User: "u", Pass: "p", InsecureIgnoreHostKey: true}
	err := UploadFiles(ctx, cfg, "a.json", "a.csv")
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Errorf("Expected a canceled dial, got %v", err)
	}
}
