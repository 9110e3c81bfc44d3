package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dawnlamp/dawnlamp/internal/config"
	"github.com/dawnlamp/dawnlamp/internal/controller"
	"github.com/dawnlamp/dawnlamp/internal/db"
	"github.com/dawnlamp/dawnlamp/internal/device"
	"github.com/dawnlamp/dawnlamp/internal/hw/battery"
	"github.com/dawnlamp/dawnlamp/internal/hw/buttonpin"
	"github.com/dawnlamp/dawnlamp/internal/hw/clock"
	"github.com/dawnlamp/dawnlamp/internal/hw/display"
	"github.com/dawnlamp/dawnlamp/internal/hw/hibernate"
	"github.com/dawnlamp/dawnlamp/internal/hw/light"
	"github.com/dawnlamp/dawnlamp/internal/ledger"
	"github.com/dawnlamp/dawnlamp/internal/schedule"
	"github.com/dawnlamp/dawnlamp/internal/wireless"
)

// Services is a container for all application services. Initialization order
// matters: storage and display are required and fail the boot; lamp, battery,
// button and wireless degrade with a warning so a broken peripheral never
// leaves the user without an alarm clock.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *db.DB
	Ledger *ledger.Ledger
	Store  *device.SQLiteStore

	// Hardware
	Clock   clock.Clock
	Display display.Display
	Light   light.Light
	Battery battery.Sensor
	Button  buttonpin.Pin
	Sleeper hibernate.Sleeper

	// High-level services
	Wireless   *wireless.Service
	Controller *controller.Controller

	wg sync.WaitGroup
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database (required)
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database
	s.Ledger = ledger.New(database.DB)
	s.Store = device.NewSQLiteStore(database.DB)

	// Clock: seed from the build timestamp when the RTC was never set.
	s.Clock = clock.NewRealClock()
	clock.SeedFromBuild(s.Clock, schedule.TimeSane)

	// Display (required: the device is a clock first)
	disp, err := display.NewRealDisplay(cfg.GPIO.Chip,
		cfg.GPIO.DisplayDataLine, cfg.GPIO.DisplayClockLine, cfg.GPIO.DisplayIntensity)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Display = disp

	// Lamp (degrades: alarm still fires, display still works)
	if lamp, err := light.NewRealLight(cfg.PWM.ChipDir, cfg.PWM.WarmChannel, cfg.PWM.CoolChannel); err != nil {
		log.Warn().Err(err).Msg("Lamp unavailable, continuing without light output")
	} else {
		s.Light = lamp
	}

	// Battery sensor (degrades: companion just sees no charge level)
	if bat, err := battery.NewRealSensor(cfg.GPIO.Chip, cfg.GPIO.BatteryEnable,
		cfg.Battery.IIODir, cfg.Battery.IIOChannel); err != nil {
		log.Warn().Err(err).Msg("Battery sensor unavailable")
	} else {
		s.Battery = bat
	}

	// Button (degrades: wake-by-button is lost, timer wake still works)
	if pin, err := buttonpin.NewRealPin(cfg.GPIO.Chip, cfg.GPIO.ButtonLine); err != nil {
		log.Warn().Err(err).Msg("Button unavailable")
	} else {
		s.Button = pin
	}

	buttonHeld := func() bool {
		if s.Button == nil {
			return false
		}
		held, err := s.Button.Pressed()
		return err == nil && held
	}
	s.Sleeper = hibernate.NewRealSleeper(cfg.Hibernate.RTCDir,
		cfg.Hibernate.WakeupSource, cfg.Hibernate.StateFile, buttonHeld)

	loc, err := loadLocation(cfg.Device.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Device.Timezone).Msg("Bad timezone, using local")
		loc = time.Local
	}

	opts := controller.Options{
		ShowWindow:     cfg.Controller.ShowWindow.Duration(),
		IdleTick:       cfg.Controller.IdleTick.Duration(),
		GradientTick:   cfg.Controller.GradientTick.Duration(),
		IdleSleepDelay: cfg.Controller.IdleSleepDelay.Duration(),
		AlwaysOn:       cfg.Controller.AlwaysOn,
		Location:       loc,
	}
	ctrl, err := controller.New(opts, s.Store, s.Clock, s.Display,
		s.Light, s.Battery, s.Button, s.Sleeper, s.Ledger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Controller = ctrl

	// Wireless config channel (degrades: device still wakes, ramps, sleeps)
	if cfg.Wireless.Enabled {
		transport := wireless.NewMQTTTransport(cfg.Wireless.Broker, cfg.Device.ID, cfg.Device.Name)
		s.Wireless = wireless.NewService(transport, ctrl, cfg.Wireless.PushInterval.Duration())
		ctrl.AttachWireless(s.Wireless)
	} else {
		log.Info().Msg("Wireless channel disabled by config")
	}

	return s, nil
}

// Start launches the wireless service and the controller.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	if _, err := s.Ledger.Cleanup(s.cfg.Ledger.RetentionDays); err != nil {
		log.Warn().Err(err).Msg("Ledger cleanup failed")
	}

	if s.Wireless != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.Wireless.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("Wireless channel stopped, continuing without it")
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Controller.Run(ctx); err != nil {
			onFatalError(err)
			return
		}
		// On real hardware hibernation never returns; reaching here means a
		// clean mode exit (tests, always-on cancellation, shutdown signal).
		onFatalError(nil)
	}()

	return nil
}

// Stop waits for the loops and releases every peripheral.
func (s *Services) Stop() error {
	s.wg.Wait()
	s.Close()
	log.Info().Msg("All services stopped")
	return nil
}

// Close releases resources in reverse initialization order.
func (s *Services) Close() {
	if s.Wireless != nil {
		if err := s.Wireless.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("Wireless shutdown failed")
		}
		s.Wireless = nil
	}
	if s.Button != nil {
		_ = s.Button.Close()
		s.Button = nil
	}
	if s.Battery != nil {
		_ = s.Battery.Close()
		s.Battery = nil
	}
	if s.Light != nil {
		_ = s.Light.Close()
		s.Light = nil
	}
	if s.Display != nil {
		_ = s.Display.Close()
		s.Display = nil
	}
	if s.DB != nil {
		_ = s.DB.Close()
		s.DB = nil
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
