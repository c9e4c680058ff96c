package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	"webpay/config"
	"webpay/internal"
	"webpay/services"
)

const shutdownTimeout = 15 * time.Second

func main() {

	logger := internal.NewLogger("internal", false, nil)
	defer logger.Sync()

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		os.Exit(1)
	}

	var database services.Database
	mongo, err := internal.NewMongoClient(conf)
	if err != nil {
		logger.Error("mongo client", err)
		os.Exit(1)
	}
	if mongo != nil {
		database = mongo
		logger.Info("mongo client initialized")
	}

	transbank := internal.NewTransbank(conf)
	transbank.SetLogger(internal.NewLogger("transbank", conf.IsDebug, database))

	payments := internal.NewPayments(transbank)
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, database))
	payments.SetDatabase(database)

	serverLogger := internal.NewLogger("server", conf.IsDebug, database)
	server := internal.NewServer(conf)
	server.SetLogger(serverLogger)
	server.SetPaymentsService(payments)

	logger.Info(fmt.Sprintf("%s; environment %s; commerce code %s; gateway %s; port %s; base url %s",
		conf.ServiceName, conf.Transbank.Environment, conf.Transbank.CommerceCode, conf.GatewayURL(), conf.Listen.Port, conf.BaseUrl))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err = <-serverErr:
		if err != nil {
			logger.Error("server start", err)
		}
	case <-ctx.Done():
		logger.Info("received shutdown signal, starting graceful shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", err)
		}
		cancel()
	}

	if mongo != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err = mongo.Close(closeCtx); err != nil {
			logger.Error("mongo close", err)
		}
		cancel()
	}
	serverLogger.Sync()
}
