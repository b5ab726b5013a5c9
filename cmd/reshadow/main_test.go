package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/nerrad567/re-shadow-harness/internal/firmware"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/config"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/logging"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/mqtt"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/codec"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/protocol"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func quietLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "debug", Format: "text", Output: "discard"}, "test")
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: options{}},
		{
			name: "all flags",
			args: []string{"--config", "a.yaml", "--firmware", "fw.bin", "--probe", "--include-connection", "--timeout", "3s"},
			want: options{configPath: "a.yaml", firmwarePath: "fw.bin", probe: true, includeConnection: true, timeout: 3 * time.Second},
		},
		{name: "short config", args: []string{"-c", "b.yaml"}, want: options{configPath: "b.yaml"}},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: true},
		{name: "positional argument", args: []string{"extra"}, wantErr: true},
		{name: "negative timeout", args: []string{"--timeout", "-1s"}, wantErr: true},
		{name: "bad duration", args: []string{"--timeout", "soon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags([]string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("parseFlags(--help) error = %v, want pflag.ErrHelp", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(config.EnvConfigPath, "")
		if got := getConfigPath(""); got != defaultConfigPath {
			t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
		}
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv(config.EnvConfigPath, "/etc/reshadow/config.yaml")
		if got := getConfigPath(""); got != "/etc/reshadow/config.yaml" {
			t.Errorf("getConfigPath() = %q, want env value", got)
		}
	})

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(config.EnvConfigPath, "/etc/reshadow/config.yaml")
		if got := getConfigPath("local.yaml"); got != "local.yaml" {
			t.Errorf("getConfigPath() = %q, want flag value", got)
		}
	})
}

func TestRun_Help(t *testing.T) {
	if err := run(context.Background(), []string{"-h"}); err != nil {
		t.Errorf("run(-h) error = %v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"--config", "/nonexistent/path/config.yaml"})
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config failure", err)
	}
}

func TestRun_MissingFirmware(t *testing.T) {
	path := writeConfig(t, `
device:
  id: "AA:BB:CC:DD:EE:FF"
database:
  enabled: false
logging:
  output: discard
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"--config", path, "--firmware", filepath.Join(t.TempDir(), "absent.bin")})
	if err == nil || !strings.Contains(err.Error(), "loading firmware") {
		t.Errorf("run() error = %v, want loading firmware failure", err)
	}
}

// TestRun_BrokerUnreachable waits out the MQTT connect timeout.
func TestRun_BrokerUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the connect timeout")
	}

	path := writeConfig(t, `
device:
  id: "AA:BB:CC:DD:EE:FF"
mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
    client_id: "reshadow-test"
database:
  enabled: false
logging:
  output: discard
`)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := run(ctx, []string{"--config", path})
	if !errors.Is(err, mqtt.ErrConnectionFailed) {
		t.Errorf("run() error = %v, want ErrConnectionFailed", err)
	}
}

func TestLoadFirmware(t *testing.T) {
	log := quietLogger()

	fw, err := loadFirmware("", "", log)
	if err != nil || fw != nil {
		t.Errorf("loadFirmware() = %v, %v, want nil, nil", fw, err)
	}

	dir := t.TempDir()
	cfgImage := filepath.Join(dir, "cfg.bin")
	flagImage := filepath.Join(dir, "flag.bin")
	if err := os.WriteFile(cfgImage, []byte("..$$FIRMWARE_VERSION=1.0-aaa#.."), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(flagImage, []byte("..$$FIRMWARE_VERSION=2.0-bbb#.."), 0600); err != nil {
		t.Fatal(err)
	}

	fw, err = loadFirmware(flagImage, cfgImage, log)
	if err != nil {
		t.Fatalf("loadFirmware() error = %v", err)
	}
	if fw.Version.Commit != "bbb" {
		t.Errorf("loaded %s, want the flag image", fw.Version)
	}
}

func TestHealthCheck_DisconnectedMQTT(t *testing.T) {
	err := healthCheck(context.Background(), nil, &mqtt.Client{}, nil)
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("healthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestLogMessage(t *testing.T) {
	log := quietLogger()
	fw := &firmware.Firmware{Version: firmware.Version{Major: 1, Minor: 2, Commit: "abc"}}

	reported, err := packet.NewState(packet.TypeReportedV1, packet.Header{Version: 1})
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	reported[fieldFirmwareVersion] = codec.Bytes([]byte{1, 3})

	tests := []struct {
		name string
		msg  protocol.Message
		fw   *firmware.Firmware
	}{
		{name: "reported with mismatched firmware", msg: protocol.Message{Action: protocol.ActionReportedUpdate, State: reported}, fw: fw},
		{name: "reported without firmware", msg: protocol.Message{Action: protocol.ActionReportedUpdate, State: reported}},
		{name: "empty state", msg: protocol.Message{Action: protocol.ActionGet}, fw: fw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic.
			logMessage(tt.msg, tt.fw, log)
		})
	}
}
