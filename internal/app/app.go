package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/linemk/food-delivery/internal/broker"
	"github.com/linemk/food-delivery/internal/config"
	"github.com/pkg/errors"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sql.DB
	Publisher broker.Publisher

	rabbit *broker.RabbitMQ
}

// DSN собирает строку подключения к Postgres
func DSN(db config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
	)
}

// NewApp создаёт новый экземпляр App: подключение к БД и, если задан URL, к брокеру
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", DSN(cfg.Database))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	app := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Publisher: broker.NopPublisher{},
	}

	if cfg.RabbitMQ.URL == "" {
		log.Info("rabbitmq url is not set, status events are not published")
		return app, nil
	}

	rabbit, err := broker.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to broker")
	}
	app.rabbit = rabbit
	app.Publisher = rabbit

	return app, nil
}

// Close освобождает соединения
func (a *App) Close() {
	if a.rabbit != nil {
		a.rabbit.Close()
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
