package bootstrap

import (
	"strings"
	"time"

	"convohealth-be/internal/config"
	"convohealth-be/internal/controller"
	"convohealth-be/internal/handler"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/internal/service"
	"convohealth-be/internal/websocket"
	"convohealth-be/pkg/credential"
	"convohealth-be/pkg/events"
	"convohealth-be/pkg/llm/factory"
	"convohealth-be/pkg/metrics"
	pktNats "convohealth-be/pkg/nats"
	"convohealth-be/pkg/recording/orchestrator"
	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"
	"convohealth-be/pkg/transcription/fallback"
	"convohealth-be/pkg/transcription/google"
	"convohealth-be/pkg/transcription/rest"
	"convohealth-be/pkg/usage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

// RecordingEventsTopic carries orchestrator events from the recording
// service to the websocket consumer.
const RecordingEventsTopic = "recording.events"

type Container struct {
	// Controllers
	RecordingController controller.IRecordingController
	SoapNoteController  controller.ISoapNoteController
	UsageController     controller.IUsageController

	// Services the process entry points drive directly
	RecordingService  service.IRecordingService
	SoapNoteService   service.ISoapNoteService
	UsageService      service.IUsageService
	CredentialService service.ICredentialService

	// Background workers (exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	m := metrics.DefaultMetrics

	c := &Container{Logger: sysLogger}

	// 2. In-process event bus for per-session push traffic
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var publisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "NATS publisher unavailable, domain events disabled", map[string]interface{}{"error": err.Error()})
	} else {
		publisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "NATS subscriber unavailable, push relay disabled", map[string]interface{}{"error": err.Error()})
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	rdb := ConnectRedis(cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// 4. WebSocket hub; Run is started by main.
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 5. Credentials and providers
	c.CredentialService = service.NewCredentialService(uowFactory, sysLogger)
	transcriber := newTranscriber(cfg, c.CredentialService, sysLogger)
	generator := newNoteGenerator(cfg, c.CredentialService, sysLogger)

	// 6. Domain services
	c.UsageService = service.NewUsageService(
		NewPreferenceBackend(uowFactory, rdb),
		service.NewDurationStore(uowFactory),
		usage.Limits{Minutes: cfg.Usage.TrialMinutes, Days: cfg.Usage.TrialDays, WarnRatio: cfg.Usage.WarnRatio},
		publisher,
		m,
		sysLogger,
		time.Now,
	)

	c.SoapNoteService = service.NewSoapNoteService(uowFactory, publisher, m, sysLogger, time.Now)

	c.RecordingService = service.NewRecordingService(
		transcriber,
		generator,
		c.UsageService,
		service.NewPublisherService(pubSub, RecordingEventsTopic),
		publisher,
		service.RecordingServiceConfig{
			TickInterval:   cfg.Recording.TickInterval,
			ChunkInterval:  cfg.Recording.ChunkInterval,
			AnalyzingDelay: cfg.Recording.AnalyzingDelay,
			SessionIdleTTL: cfg.Recording.SessionIdleTTL,
		},
		sysLogger,
		orchestrator.WithMetrics(m),
	)

	c.ConsumerService = service.NewConsumerService(pubSub, RecordingEventsTopic, c.WebSocketHub, wsLogger)
	if natsSub != nil {
		c.NotificationService = service.NewNotificationService(natsSub, c.WebSocketHub, wsLogger)
	}

	// 7. Controllers and handlers
	c.RecordingController = controller.NewRecordingController(c.RecordingService)
	c.SoapNoteController = controller.NewSoapNoteController(c.SoapNoteService)
	c.UsageController = controller.NewUsageController(c.UsageService)
	c.RealtimeHandler = handler.NewRealtimeHandler(c.WebSocketHub, cfg.App.JwtSecret, wsLogger)

	return c
}

// Close releases live sessions and the bus connections, newest first.
func (c *Container) Close() {
	c.RecordingService.Shutdown()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

// newTranscriber builds the provider chain. The fallback provider always
// closes the chain so a recording never ends without a transcript.
func newTranscriber(cfg *config.Config, creds credential.Lookup, log logger.ILogger) *transcription.Chain {
	mapping := transcription.DefaultSpeakerMapping()
	if cfg.Recording.SwapSpeakers {
		mapping = mapping.Swapped()
	}
	overrides, err := transcription.ParseSpeakerOverrides(cfg.Recording.SpeakerOverrides)
	if err != nil {
		log.Warn("Bootstrap", "Ignoring speaker overrides", map[string]interface{}{"error": err.Error()})
	}
	mapping.Overrides = overrides

	language, _, _ := strings.Cut(cfg.Recording.LanguageCode, "-")
	restProvider := rest.New(creds, rest.Config{
		Upload:   rest.Upload(cfg.Recording.TranscriptionUpload),
		Language: language,
		Mapping:  mapping,
	})
	googleProvider := google.New(creds, google.Config{
		LanguageCode: cfg.Recording.LanguageCode,
		Mapping:      mapping,
	})

	var providers []transcription.Transcriber
	switch cfg.Recording.TranscriptionProvider {
	case "rest":
		providers = append(providers, restProvider)
	case "google":
		providers = append(providers, googleProvider)
	default:
		providers = append(providers, restProvider, googleProvider)
	}
	providers = append(providers, fallback.New())

	log.Info("Bootstrap", "Transcription chain configured", map[string]interface{}{"providers": len(providers)})
	return transcription.NewChain(log, cfg.Recording.TranscriptionTimeout, providers...)
}

func newNoteGenerator(cfg *config.Config, creds credential.Lookup, log logger.ILogger) *soap.Chain {
	generators := []soap.Generator{}

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, creds)
	if err != nil {
		log.Warn("Bootstrap", "LLM provider unavailable, using extractive notes only", map[string]interface{}{"error": err.Error()})
	} else {
		generators = append(generators, soap.NewLLMGenerator(llmProvider, cfg.Ai.LLMTemperature, cfg.Ai.LLMMaxTokens))
		log.Info("Bootstrap", "Using LLM provider", map[string]interface{}{
			"provider": cfg.Ai.LLMProvider,
			"model":    cfg.Ai.LLMModel,
		})
	}
	generators = append(generators, soap.ExtractiveGenerator{})

	return soap.NewChain(log, cfg.Recording.GenerationTimeout, generators...)
}
