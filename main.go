package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"overlay/config"
	"overlay/internal"
	"overlay/services"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {

	logger := internal.NewLogger("internal", false, nil)

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded")
	}

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		return
	}
	internal.InitLogging(conf.Env, conf.IsDebug)

	var database services.Database
	var mongo *internal.MongoDB
	if conf.Mongo.Enabled {
		mongo, err = internal.NewMongoClient(conf)
		if err != nil {
			logger.Error("mongo client", err)
			return
		}
		database = mongo
		logger.Info("mongo client initialized")
	}

	merchants := internal.MerchantChain{internal.NewStaticMerchants(conf.StaticMerchants())}
	if mongo != nil {
		merchants = append(merchants, mongo)
	}
	var merchantStore services.MerchantStore = merchants
	if conf.Redis.Enabled {
		cache := internal.NewMerchantCache(internal.NewRedisClient(conf), merchants, conf.RedisTTL())
		cache.SetLogger(internal.NewLogger("redis", conf.IsDebug, database))
		merchantStore = cache
		logger.Info("redis merchant cache enabled")
	}

	gateway := internal.NewGatewayClient(conf.GatewayTimeout(), internal.NewLogger("gateway", conf.IsDebug, database))
	gateway.SetLogBodies(conf.Gateway.LogBodies)
	if mongo != nil {
		gateway.SetRecorder(internal.NewExchangeRecorder(mongo))
	}

	payments := internal.NewPayments(conf)
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, database))
	payments.SetMerchantStore(merchantStore)
	payments.SetGateway(gateway)

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, database))
	server.SetPaymentsService(payments)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown", err)
		}
	}()

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
