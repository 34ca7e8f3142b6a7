package main

import (
	approvalrepo "slotgate/internal/approval/repository"
	approvalservice "slotgate/internal/approval/service"
	bookingsrepo "slotgate/internal/bookings/repository"
	"slotgate/internal/bookings/validator"
	"slotgate/internal/gateway/handler"
	intakerepo "slotgate/internal/intake/repository"
	intakeservice "slotgate/internal/intake/service"
	"slotgate/internal/notify"
	"slotgate/internal/policy"
	"slotgate/pkg/app"
	"slotgate/pkg/config"
	"slotgate/pkg/contracts"
	"slotgate/pkg/kafka"
	kafka_config "slotgate/pkg/kafka/config"
)

const ServiceName = "booker"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting booker service")

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	gatewayHandler := initServices(cfg, producer)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, gatewayHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, producer *kafka.Producer) contracts.Handler {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewDateLockRepository(cfg)
	promptRepo := approvalrepo.NewPromptRepository(cfg)
	pendingRepo := approvalrepo.NewPendingRejectionRepository(cfg)
	sessionRepo := intakerepo.NewSessionRepository(cfg)

	messenger := notify.NewLogMessenger(cfg.Log)
	fanout := notify.NewFanout(producer, cfg.ApproverIDs, ServiceName, cfg.Log)

	intakePol := policy.New(cfg.AllowedWeekdays, cfg.MinLeadDays, cfg.MaxScanDays)
	assignPol := policy.New(cfg.AllowedWeekdays, cfg.ApprovalMinLeadDays, cfg.MaxScanDays)

	approvalSvc := approvalservice.NewApprovalService(
		bookingRepo,
		lockRepo,
		promptRepo,
		pendingRepo,
		messenger,
		fanout,
		assignPol,
		cfg,
	)
	intakeSvc := intakeservice.NewIntakeService(
		sessionRepo,
		bookingRepo,
		bookingValidator,
		approvalSvc,
		fanout,
		intakePol,
		cfg,
	)

	cfg.Log.Info("Booker services initialized", "database", cfg.MongoDatabaseName)
	return handler.NewGatewayHandler(intakeSvc, approvalSvc, cfg.Log)
}
