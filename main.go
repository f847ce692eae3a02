package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/colibriadf/colibri/internal/mongo"
	"github.com/colibriadf/colibri/internal/order"
	"github.com/colibriadf/colibri/pkg"
)

const (
	appNamespace = "COLIBRI"
	appName      = "colibri-adf"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderStore := mongo.NewOrderStore(db, logger)
	channelRepo := mongo.NewChannelRepo(db)
	carrierRepo := mongo.NewCarrierRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	// The live view reads from the local database by default. When a flattened
	// view service is configured it reads over HTTP from there instead.
	var fetcher order.RowFetcher = orderStore
	vistaURL, _ := config.GetString("services.vista.url")
	if vistaURL != "" {
		vistaClient := apt.NewServiceClient(vistaURL)
		fetcher = order.NewRemoteViewFetcher(vistaClient, logger)
		logger.Infof("Using remote order view at %s", vistaURL)
	}

	view := order.NewLiveView(fetcher, logger)
	changeSub := order.NewChangeSubscriber(sub, view, logger)

	viewLifecycle := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := view.Refresh(ctx); err != nil {
				logger.Error("initial order fetch failed", "error", err)
			}
			return nil
		},
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	importer := order.NewImporter(orderStore, logger)

	hd := order.HandlerDeps{
		Store:     orderStore,
		Channels:  channelRepo,
		Carriers:  carrierRepo,
		View:      view,
		Importer:  importer,
		Publisher: pub,
	}

	handler := order.NewHandler(hd, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		viewLifecycle,
		changeSub,
		publisherLifecycle,
		subLifecycle,
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
