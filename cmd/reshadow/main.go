// reshadow monitors the cloud-side shadow of an RE radiator.
//
// It connects to the broker the device reports to, subscribes to the
// device's shadow topics and logs every message it receives. Frames are
// journaled to SQLite and reported readings written to InfluxDB when
// those stores are enabled. With --probe it first publishes a header-only
// GET, which the device answers with its current state.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	_ "github.com/nerrad567/re-shadow-harness/migrations"

	"github.com/nerrad567/re-shadow-harness/internal/cloud"
	"github.com/nerrad567/re-shadow-harness/internal/firmware"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/config"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/database"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/influxdb"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/logging"
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/mqtt"
	"github.com/nerrad567/re-shadow-harness/internal/journal"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/intake"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/protocol"
	"github.com/nerrad567/re-shadow-harness/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// fieldFirmwareVersion is the reported [major, minor] firmware field.
const fieldFirmwareVersion = "firmwareVersion"

// options holds the parsed command line.
type options struct {
	configPath        string
	firmwarePath      string
	probe             bool
	includeConnection bool
	timeout           time.Duration
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses the command line. pflag.ErrHelp is returned for -h.
func parseFlags(args []string) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("reshadow", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: $"+config.EnvConfigPath+" or "+defaultConfigPath+")")
	flagSet.StringVar(&opts.firmwarePath, "firmware", "", "firmware image the device is expected to report (overrides device.firmware)")
	flagSet.BoolVar(&opts.probe, "probe", false, "publish a header-only GET before monitoring")
	flagSet.BoolVar(&opts.includeConnection, "include-connection", false, "also log connection-status pings")
	flagSet.DurationVar(&opts.timeout, "timeout", 0, "idle time before logging that no message arrived (default: harness.receive_timeout)")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	if opts.timeout < 0 {
		return options{}, fmt.Errorf("--timeout must not be negative")
	}

	return opts, nil
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown or --help, or error describing failure
func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	log := logging.Default()
	log.Info("starting reshadow",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath(opts.configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "device_id", cfg.Device.ID)

	fw, err := loadFirmware(opts.firmwarePath, cfg.Device.Firmware, log)
	if err != nil {
		return err
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	cloudOpts := cloud.Options{
		DeviceID:  cfg.Device.ID,
		Transport: cloud.NewMQTTTransport(mqttClient),
		Logger:    log,
	}

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = openJournal(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		rec := journal.NewRecorder(db.DB)
		rec.SetLogger(log)
		cloudOpts.Journal = rec
		log.Info("journal open", "path", cfg.Database.Path)
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		cloudOpts.Telemetry = telemetry.NewRecorder(influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	shadow, err := cloud.New(cloudOpts)
	if err != nil {
		return fmt.Errorf("subscribing to shadow: %w", err)
	}
	log.Info("subscribed to device shadow", "filter", shadow.Topics().Filter())

	if opts.probe {
		if err := probe(shadow, log); err != nil {
			return err
		}
	}

	timeout := opts.timeout
	if timeout == 0 {
		timeout = cfg.GetReceiveTimeout()
	}

	var recvOpts []intake.ReceiveOption
	if opts.includeConnection {
		recvOpts = append(recvOpts, intake.IncludeConnection())
	}

	if err := monitor(ctx, shadow, timeout, recvOpts, fw, log); err != nil {
		return err
	}

	log.Info("reshadow stopped")
	return nil
}

// getConfigPath returns the flag value, then RESHADOW_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadFirmware loads the expected firmware image, if one is configured.
// A nil firmware disables the reported-version check.
func loadFirmware(flagPath, cfgPath string, log *logging.Logger) (*firmware.Firmware, error) {
	path := flagPath
	if path == "" {
		path = cfgPath
	}
	if path == "" {
		return nil, nil
	}

	fw, err := firmware.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading firmware: %w", err)
	}
	log.Info("firmware loaded", "path", path, "version", fw.Version.String(), "bytes", len(fw.Binary))
	return fw, nil
}

// openJournal opens the frame journal and applies pending migrations.
func openJournal(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// healthCheck verifies all infrastructure connections are healthy.
// db and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// probe asks the device for its current state.
func probe(shadow *cloud.Cloud, log *logging.Logger) error {
	msg, err := cloud.NewMessage(protocol.ActionGet, protocol.ResponseNone, packet.TypeHeader, 0)
	if err != nil {
		return err
	}
	if err := shadow.Publish(msg); err != nil {
		return fmt.Errorf("publishing probe: %w", err)
	}
	log.Info("probe published", "client_token", packet.ParseHeader(msg.State).ClientToken)
	return nil
}

// monitor logs shadow messages until ctx is cancelled.
func monitor(ctx context.Context, shadow *cloud.Cloud, timeout time.Duration, recvOpts []intake.ReceiveOption, fw *firmware.Firmware, log *logging.Logger) error {
	log.Info("monitoring device shadow", "idle_timeout", timeout.String())

	for {
		msg, err := shadow.Receive(ctx, timeout, recvOpts...)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, intake.ErrTimeout):
			log.Info("no shadow message received", "waited", timeout.String())
			continue
		case err != nil:
			return fmt.Errorf("receiving: %w", err)
		}

		logMessage(msg, fw, log)
	}
}

// logMessage logs one message and checks the reported firmware version.
func logMessage(msg protocol.Message, fw *firmware.Firmware, log *logging.Logger) {
	h := packet.ParseHeader(msg.State)
	log.Info("shadow message",
		"action", msg.Action.String(),
		"response", msg.Response.String(),
		"type", h.Type.String(),
		"version", h.Version,
		"client_token", h.ClientToken,
	)

	if fw == nil || !h.Type.IsReported() {
		return
	}
	reported, err := msg.State.Bytes(fieldFirmwareVersion)
	if err != nil || len(reported) != 2 {
		return
	}
	if !fw.Version.MatchesReported(reported) {
		log.Warn("device reports unexpected firmware",
			"expected", fw.Version.String(),
			"reported", fmt.Sprintf("v%d.%d", reported[0], reported[1]),
		)
	}
}
