package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"purse/internal/config"
	"purse/internal/logger"
	"purse/internal/messaging"
	"purse/internal/repositories/audit"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, !config.IsProduction())

	if cfg.MongoURI == "" || cfg.RabbitMQURL == "" {
		log.Fatal().Msg("MONGO_URI and RABBITMQ_URL are required")
	}

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mongodb client")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to disconnect mongodb")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mongodb")
	}
	auditRepo := audit.NewRepository(mongoClient, cfg.MongoDatabase)

	conn, err := amqp.DialConfig(cfg.RabbitMQURL, amqp.Config{
		Properties: amqp.Table{"connection_name": "purse_audit_worker"},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open channel")
	}
	defer ch.Close()

	// One unacked message at a time
	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatal().Err(err).Msg("failed to set qos")
	}
	if err := messaging.DeclareExchange(ch); err != nil {
		log.Fatal().Err(err).Msg("failed to declare exchange")
	}
	q, err := messaging.DeclareAuditQueue(ch)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare audit queue")
	}

	msgs, err := ch.Consume(
		q.Name,         // queue
		"audit_worker", // consumer tag
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	notifyClose := ch.NotifyClose(make(chan *amqp.Error, 1))
	log.Info().Str("queue", q.Name).Msg("audit worker started")

	go func() {
		for {
			select {
			case err := <-notifyClose:
				if err != nil {
					log.Error().Err(err).Msg("rabbitmq channel closed")
					os.Exit(1)
				}
				return
			case d, ok := <-msgs:
				if !ok {
					log.Error().Msg("delivery channel closed")
					os.Exit(1)
				}
				process(auditRepo, d)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down worker")
}

func process(repo audit.Saver, d amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := audit.Handle(ctx, repo, d.Body)
	switch {
	case err == nil:
		if err := d.Ack(false); err != nil {
			log.Error().Err(err).Msg("failed to ack message")
		}
	case errors.Is(err, audit.ErrMalformedEvent):
		log.Warn().Err(err).Bytes("body", d.Body).Msg("dropping malformed ledger event")
		if err := d.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("failed to nack message")
		}
	default:
		log.Error().Err(err).Str("message_id", d.MessageId).Msg("failed to store audit log, requeueing")
		if err := d.Nack(false, true); err != nil {
			log.Error().Err(err).Msg("failed to nack message")
		}
	}
}
