package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nerftank/console/internal/api"
	"github.com/nerftank/console/internal/config"
	"github.com/nerftank/console/internal/geom"
	"github.com/nerftank/console/internal/influx"
	"github.com/nerftank/console/internal/logging"
	"github.com/nerftank/console/internal/monitor"
	"github.com/nerftank/console/internal/recorder"
	"github.com/nerftank/console/internal/session"
)

// AppName can be overridden at build time via ldflags.
var (
	AppName string = "console"
	Version string = "0.0.1"
)

var SessionStartTime time.Time = time.Now()

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "dump":
			if len(args) < 2 {
				fmt.Println("No blackbox paths provided.")
				os.Exit(1)
			}
			if err := dumpBlackbox(args[1:]); err != nil {
				panic(err)
			}
			return
		case "version":
			fmt.Println(AppName, Version)
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logManager := logging.NewManager()
	logManager.Setup(nil, "info", "")
	logger := logManager.Logger()

	if err := config.Load("."); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config")
	}

	logsDir := config.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}

	logFilePath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
	}
	defer func() {
		if logFile != nil {
			logFile.Close()
		}
	}()

	graylogAddr := ""
	if config.GetBool("graylog.enabled") {
		graylogAddr = config.GetString("graylog.address")
	}
	var fileWriter io.Writer
	if logFile != nil {
		fileWriter = logFile
	}
	logManager.Setup(fileWriter, config.GetString("logLevel"), graylogAddr)
	logger = logManager.Logger()
	defer logManager.Close()

	logger.Info("Starting up...", "version", Version, "logFile", logFilePath)

	zlog := logging.NewZerolog(fileWriter, config.GetString("logLevel"))

	// session blackbox
	backend, err := recorder.NewBackend(zlog, recorder.Config{
		Type:       config.GetString("recorder.backend"),
		SqlitePath: config.GetString("recorder.sqlitePath"),
		Postgres: recorder.PostgresConfig{
			Host:     config.GetString("recorder.postgres.host"),
			Port:     config.GetString("recorder.postgres.port"),
			Username: config.GetString("recorder.postgres.username"),
			Password: config.GetString("recorder.postgres.password"),
			Database: config.GetString("recorder.postgres.database"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create blackbox backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to init blackbox backend: %w", err)
	}
	defer backend.Close()

	flushEvery := time.Duration(config.GetInt("recorder.flushSeconds")) * time.Second
	rec := recorder.New(logger, backend, flushEvery)

	// surface geometry derived from the input plane
	width := config.GetFloat64("input.width")
	height := config.GetFloat64("input.height")
	radius := config.GetFloat64("surface.radius")

	hz := config.GetInt("sample.hz")
	if hz <= 0 {
		hz = 20
	}

	sess, err := session.New(logger, session.Config{
		RobotURL:     config.GetString("robot.url"),
		SamplePeriod: time.Second / time.Duration(hz),
		DriveCenter:  geom.Vec2{X: width * 0.25, Y: height * 0.5},
		TurretCenter: geom.Vec2{X: width * 0.75, Y: height * 0.5},
		Radius:       radius,
		DeadZone:     config.GetFloat64("surface.deadZone"),
		Ammo:         config.GetInt("turret.ammo"),
		Recorder:     rec,
	})
	if err != nil {
		return fmt.Errorf("failed to build session: %w", err)
	}

	// reachability check against the robot's page server
	go func() {
		robotHTTP := strings.TrimSuffix(config.GetString("robot.url"), "/ws")
		robotHTTP = strings.Replace(robotHTTP, "ws://", "http://", 1)
		robotHTTP = strings.Replace(robotHTTP, "wss://", "https://", 1)
		if err := api.New(robotHTTP, "").Healthcheck(); err != nil {
			logger.Info("Robot page server is offline", "error", err)
		} else {
			logger.Info("Robot page server is online")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("failed to reach robot: %w", err)
	}
	defer sess.Close()

	// optional performance shipping
	var influxManager *influx.Manager
	if config.GetBool("influx.enabled") {
		influxManager = influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			logger.Warn("InfluxDB unavailable", "error", err)
			influxManager = nil
		}
	}

	monitorDeps := monitor.Dependencies{
		Channel:   sess.Channel,
		Sampler:   sess.Sampler,
		Recorder:  rec,
		Logger:    logger,
		Operator:  AppName,
		StatusDir: logsDir,
	}
	if influxManager != nil {
		monitorDeps.Influx = influxManager
	}
	monitorService := monitor.NewService(monitorDeps)
	monitorService.Start()
	defer monitorService.Stop()

	// optional pointer hardware
	if device := config.GetString("input.device"); device != "" {
		src, err := openInputSource(logger, device, width, height)
		if err != nil {
			logger.Error("Failed to open input device", "device", device, "error", err)
		} else {
			defer src.Close()
			go sess.Binder.Run(src)
			logger.Info("Input device attached", "device", device)
		}
	}

	logger.Info("Console running", "robot", config.GetString("robot.url"), "hz", hz)
	<-ctx.Done()

	logger.Info("Shutting down",
		"framesSent", sess.Sampler.FramesSent(),
		"framesDropped", sess.Sampler.FramesDropped())
	return nil
}
