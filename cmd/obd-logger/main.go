package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/serebryakov7/obd-logger/internal/config"
	"github.com/serebryakov7/obd-logger/internal/elm327"
	"github.com/serebryakov7/obd-logger/internal/metrics"
	"github.com/serebryakov7/obd-logger/internal/obd"
	"github.com/serebryakov7/obd-logger/internal/recorder"
	"github.com/serebryakov7/obd-logger/pkg/mqtt"
)

var (
	configPath      = flag.String("config", "", "YAML файл конфигурации")
	lpg             = flag.Bool("lpg", false, "Запись на газе (метка LPG в имени файла)")
	portName        = flag.String("port", "", "Последовательный порт адаптера ELM327")
	baudRate        = flag.Int("baud", 0, "Скорость передачи данных в бодах")
	interval        = flag.Duration("interval", 0, "Период опроса")
	profileName     = flag.String("profile", "", "Набор сигналов: fuelpw или o2trim")
	connectionCheck = flag.String("connection-check", "", "Проверка соединения: strict или lenient (по умолчанию по профилю)")
	outDir          = flag.String("out-dir", "", "Каталог для файлов записи")
	mqttBroker      = flag.String("broker", "", "MQTT брокер для дублирования строк (пусто - выключено)")
	mqttTopic       = flag.String("topic", "", "MQTT топик для строк")
	journalPath     = flag.String("journal", config.DefaultJournalPath, "Файл журнала сессий bbolt (пусто - выключено)")
	metricsAddr     = flag.String("metrics-addr", "", "Адрес HTTP для /metrics (пусто - выключено)")
	logFile         = flag.String("log-file", "", "Файл журнала работы с ротацией")
	listSessions    = flag.Bool("list-sessions", false, "Вывести журнал сессий и выйти")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	start := time.Now()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("Ошибка конфигурации: %v", err)
		return 1
	}
	setupLogging(cfg.Log)

	if *listSessions {
		if err := printSessions(os.Stdout, cfg.Journal.Path); err != nil {
			log.Printf("Ошибка чтения журнала: %v", err)
			return 1
		}
		return 0
	}

	profile, err := recorder.LookupProfile(cfg.Sampling.Profile)
	if err != nil {
		log.Printf("Ошибка конфигурации: %v", err)
		return 1
	}
	strict := cfg.Strict(profile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Запуск логгера OBD-II: порт %s, профиль %s", cfg.Serial.Port, profile.Name)
	conn, err := elm327.Open(ctx, cfg.ELM327())
	if err != nil {
		log.Printf("Ошибка подключения к адаптеру: %v", err)
		return 1
	}
	defer conn.Close()

	columns := recorder.BuildColumns(profile, conn)
	if proceed, code := checkStartup(ctx, strict, conn.Status()); !proceed {
		return code
	}

	tag := recorder.FuelTag(*lpg, cfg.Output.PrimaryTag, cfg.Output.AlternateTag)
	path := filepath.Join(cfg.Output.Dir, recorder.FileName(start, tag))
	session, err := recorder.CreateSession(path, columns, recorder.SessionOptions{Fsync: cfg.Output.Fsync})
	if err != nil {
		log.Printf("Ошибка создания файла записи: %v", err)
		return 1
	}
	defer session.Close()

	sessionID := uuid.NewString()
	var observers []recorder.Observer

	var journal *journalObserver
	if cfg.Journal.Path != "" {
		journal, err = openJournal(cfg.Journal.Path, sessionID, session.Path(), tag, profile.Name, start)
		if err != nil {
			log.Printf("Журнал сессий недоступен: %v", err)
		} else {
			defer journal.Close()
			observers = append(observers, journal)
		}
	}

	if cfg.MQTT.Broker != "" {
		publisher := mqtt.NewPublisher(mqtt.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
		}, sessionID)
		if err := publisher.Connect(); err != nil {
			log.Printf("Ошибка подключения к MQTT, строки не будут дублироваться: %v", err)
		} else {
			defer publisher.Disconnect()
			observers = append(observers, recorder.ObserverFunc(func(_ context.Context, row recorder.Row) error {
				return publisher.PublishRow(row.TimeMS, row.Header, row.Fields)
			}))
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, registry); err != nil {
				log.Printf("Ошибка HTTP сервера метрик: %v", err)
			}
		}()
	}

	sampler := recorder.NewSampler(conn, session, recorder.SamplerOptions{
		Interval:  cfg.Sampling.Interval,
		Strict:    strict,
		Console:   os.Stdout,
		Metrics:   m,
		Observers: observers,
	})

	log.Printf("Запись %s запущена. Нажмите Ctrl+C для завершения", session.Path())
	err = sampler.Run(ctx)
	if journal != nil {
		journal.finish(err)
	}

	switch {
	case err == nil:
		log.Printf("Завершение работы, записано строк: %d", session.Rows())
		return 0
	case errors.Is(err, recorder.ErrNotConnected):
		log.Printf("Запись прервана: %v", err)
		return 1
	default:
		log.Printf("Запись прервана из-за ошибки: %v", err)
		return 1
	}
}

// checkStartup решает, начинать ли запись после рукопожатия.
// Остановка по сигналу во время рукопожатия - штатное завершение с кодом 0.
func checkStartup(ctx context.Context, strict bool, status obd.Status) (bool, int) {
	if ctx.Err() != nil {
		log.Printf("Остановлено до начала записи")
		return false, 0
	}
	if strict && status != obd.CarConnected {
		log.Printf("Нет соединения с автомобилем (статус %q)", status)
		return false, 1
	}
	return true, 0
}

// loadConfig читает файл (если задан) и применяет явно указанные флаги
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Serial.Port = *portName
		case "baud":
			cfg.Serial.Baud = *baudRate
		case "interval":
			cfg.Sampling.Interval = *interval
		case "profile":
			cfg.Sampling.Profile = *profileName
		case "connection-check":
			cfg.Sampling.ConnectionCheck = *connectionCheck
		case "out-dir":
			cfg.Output.Dir = *outDir
		case "broker":
			cfg.MQTT.Broker = *mqttBroker
		case "topic":
			cfg.MQTT.Topic = *mqttTopic
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "log-file":
			cfg.Log.File = *logFile
		case "journal":
			cfg.Journal.Path = *journalPath
		}
	})

	return cfg, cfg.Validate()
}

// setupLogging направляет журнал работы в stderr и, если задан файл, в lumberjack.
// stdout остаётся только для строк CSV.
func setupLogging(cfg config.LogConfig) {
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}
	log.SetOutput(out)
}
