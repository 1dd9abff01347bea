package server

import (
	"github.com/autopeer-io/truckhub/internal/truckhub/core/service"
	"github.com/autopeer-io/truckhub/internal/truckhub/journal"
	"github.com/autopeer-io/truckhub/internal/truckhub/stream"
	"github.com/autopeer-io/truckhub/internal/truckhub/subscription"
	pkgmqtt "github.com/autopeer-io/truckhub/pkg/mqtt"
	"github.com/autopeer-io/truckhub/pkg/options"
)

type Config struct {
	HttpOptions *options.HttpOptions

	Client        pkgmqtt.Client
	Subscriptions *subscription.Manager
	Ingestor      *service.Ingestor
	Service       *service.Service
	Hub           *stream.Hub

	// Archiver is nil when journal archiving is disabled.
	Archiver *journal.Archiver
}
