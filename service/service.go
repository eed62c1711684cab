package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"report-dispatch/config"
	"report-dispatch/database"
	"report-dispatch/geo"
	"report-dispatch/handlers"
	"report-dispatch/models"
	"report-dispatch/rabbitmq"
	"report-dispatch/rewards"
	"report-dispatch/scheduler"
	"report-dispatch/simulation"
	"report-dispatch/websocket"
)

// Store is the persistence the service writes through to.
// *database.Store implements it.
type Store interface {
	EnsureSchema(ctx context.Context) error
	SaveReport(ctx context.Context, r *models.Report) error
	SaveVehicle(ctx context.Context, v *models.Vehicle) error
	SaveBuilding(ctx context.Context, b *models.Building) error
	SaveSnapshot(ctx context.Context, reports []models.Report, vehicles []models.Vehicle) error
	LoadReports(ctx context.Context) ([]models.Report, error)
	LoadVehicles(ctx context.Context) ([]models.Vehicle, error)
	LoadBuildings(ctx context.Context) ([]models.Building, error)
	Close() error
}

// Service owns the simulation and fans its effects out to storage, the
// broker, the reward ledger and WebSocket clients.
type Service struct {
	config    *config.Config
	sim       *simulation.Simulation
	store     Store
	publisher *rabbitmq.Publisher
	events    *rabbitmq.Events
	hub       *websocket.Hub
	ledger    *rewards.Ledger
	handlers  *handlers.Handlers

	newTicker func(time.Duration) scheduler.Ticker

	// persistMu is held from a simulation write until its rows are stored,
	// so rows reach the store in the order the changes happened.
	persistMu sync.Mutex

	// Control
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates the dispatch service. An empty DB host keeps all state
// in memory and an empty AMQP URL disables event publishing.
func NewService(cfg *config.Config) (*Service, error) {
	var (
		store  Store
		sender rabbitmq.Sender
		pub    *rabbitmq.Publisher
	)

	if cfg.DBHost != "" {
		db, err := database.Connect(cfg, 60*time.Second)
		if err != nil {
			return nil, err
		}
		store = db
	} else {
		log.Info("DB_HOST not set, running without persistence")
	}

	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			if store != nil {
				store.Close()
			}
			return nil, err
		}
		pub, sender = p, p
	} else {
		log.Info("AMQP_URL not set, events will not be published")
	}

	s, err := newService(cfg, store, sender)
	if err != nil {
		if store != nil {
			store.Close()
		}
		if pub != nil {
			pub.Close()
		}
		return nil, err
	}
	s.publisher = pub
	return s, nil
}

func newService(cfg *config.Config, store Store, sender rabbitmq.Sender) (*Service, error) {
	policy, err := simulation.ParseBusyPolicy(cfg.BusyPolicy)
	if err != nil {
		return nil, err
	}
	simCfg := simulation.DefaultConfig()
	simCfg.BusyPolicy = policy
	if cfg.ApproachFraction > 0 && cfg.ApproachFraction <= 1 {
		simCfg.ApproachFraction = cfg.ApproachFraction
	}
	if cfg.ArrivalEpsilon > 0 {
		simCfg.ArrivalEpsilon = cfg.ArrivalEpsilon
	}
	simCfg.MaxEnRouteTicks = cfg.MaxEnRouteTicks

	depot := geo.Point{Latitude: cfg.DepotLatitude, Longitude: cfg.DepotLongitude}
	fleetSize := cfg.FleetSize
	if fleetSize <= 0 {
		fleetSize = 3
	}

	s := &Service{
		config:    cfg,
		sim:       simulation.NewSimulation(simCfg, simulation.DefaultFleet(depot, fleetSize)),
		store:     store,
		events:    rabbitmq.NewEvents(sender),
		hub:       websocket.NewHub(),
		ledger:    rewards.NewLedger(cfg.TokensPerResolution),
		newTicker: scheduler.NewTicker,
	}
	s.handlers = handlers.NewHandlers(s, cfg.ReportRateLimit)
	return s, nil
}

// Start restores state, then starts the hub and the tick loop
func (s *Service) Start() error {
	log.Info("Starting dispatch service...")

	if err := s.restore(context.Background()); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.hub.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		scheduler.Loop(ctx, s.newTicker(s.config.TickInterval), func(time.Time) {
			s.step(context.Background())
		})
	}()

	log.WithFields(log.Fields{
		"tick_interval": s.config.TickInterval,
		"busy_policy":   s.sim.Config().BusyPolicy,
		"vehicles":      len(s.sim.Vehicles()),
	}).Info("Dispatch service started successfully")
	return nil
}

// Stop cancels the tick loop and waits for it. No tick runs after Stop
// returns.
func (s *Service) Stop() error {
	log.Info("Stopping dispatch service...")

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	var firstErr error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Errorf("Error closing publisher: %v", err)
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Errorf("Error closing database: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	log.Info("Dispatch service stopped")
	return firstErr
}

// GetHandlers returns the HTTP handlers
func (s *Service) GetHandlers() *handlers.Handlers {
	return s.handlers
}

// restore loads the stored state. An empty vehicles table is seeded with
// the default fleet.
func (s *Service) restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.EnsureSchema(ctx); err != nil {
		return err
	}

	reports, err := s.store.LoadReports(ctx)
	if err != nil {
		return err
	}
	vehicles, err := s.store.LoadVehicles(ctx)
	if err != nil {
		return err
	}
	buildings, err := s.store.LoadBuildings(ctx)
	if err != nil {
		return err
	}
	s.sim.Load(reports, vehicles, buildings)

	if len(vehicles) == 0 {
		if err := s.store.SaveSnapshot(ctx, nil, s.sim.Vehicles()); err != nil {
			return fmt.Errorf("failed to seed fleet: %w", err)
		}
		log.Infof("Seeded %d vehicles", len(s.sim.Vehicles()))
	}
	// the ledger is derived from the reports
	for _, r := range reports {
		if r.ReporterID == "" {
			continue
		}
		s.ledger.RecordReport(r.ReporterID)
		if r.Status == models.ReportResolved {
			s.ledger.RecordResolution(r.ReporterID, r.ID)
		}
	}

	log.WithFields(log.Fields{
		"reports":   len(reports),
		"vehicles":  len(vehicles),
		"buildings": len(buildings),
	}).Info("State restored")
	return nil
}
