// Command neugctl is a thin demo wrapper around the neug engine: it
// wires a configured ADC backend, prints conditioned words, and
// reports health-test diagnostics. It is not part of the core driver —
// only a way to exercise it from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
	"github.com/spf13/pflag"

	"github.com/go-neug/neug/adc"
	"github.com/go-neug/neug/config"
	"github.com/go-neug/neug/deviceid"
	"github.com/go-neug/neug/entropy"
	"github.com/go-neug/neug/hwadc"
	"github.com/go-neug/neug/neug"
	"github.com/go-neug/neug/neuglog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "neugctl:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = pflag.StringP("config", "c", "", "Path to a neug.yaml configuration file.")
		backend    = pflag.StringP("backend", "b", "", "ADC backend: fake, mic, gpio, serial. Overrides the config file.")
		mode       = pflag.StringP("mode", "m", "", "Starting mode: conditioned, raw, raw_data. Overrides the config file.")
		count      = pflag.IntP("count", "n", 8, "Number of words to print, 0 for unlimited.")
		listDevs   = pflag.Bool("list-devices", false, "List candidate serial/audio devices and exit.")
	)
	pflag.Parse()

	if *listDevs {
		return listCandidateDevices()
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *mode != "" {
		cfg.Mode = *mode
	}

	source, ledHook, err := buildBackend(cfg)
	if err != nil {
		return err
	}

	lg := neuglog.New(os.Stderr, log.InfoLevel)
	id := deviceID(cfg)

	var opts []neug.Option
	if ledHook != nil {
		opts = append(opts, neug.WithModeConditionHook(ledHook))
	}

	e, err := neug.New(source, id, cfg.RingSize, lg, opts...)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer e.Fini()

	if m := parseMode(cfg.Mode); m != entropy.Conditioned {
		e.ModeSelect(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printed := 0
	for *count == 0 || printed < *count {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Printf("%08x\n", e.Get(true))
		printed++
	}

	d := e.Diagnostics()
	fmt.Fprintf(os.Stderr, "mode=%s err_state=%v err_cnt=%d rc_max=%d p64_max=%d p4k_max=%d\n",
		d.Mode, d.ErrState, d.ErrCnt, d.RCMax, d.P64Max, d.P4KMax)
	return nil
}

// buildBackend constructs the configured ADC source. For the gpio
// backend, if a status LED line is configured it also returns a
// mode-condition hook that flashes it; callers should register the
// hook with neug.WithModeConditionHook when non-nil.
func buildBackend(cfg config.Config) (adc.Source, func(entropy.Mode), error) {
	switch cfg.Backend {
	case config.BackendFake:
		return &adc.Fake{}, nil, nil
	case config.BackendMic:
		rate := cfg.Mic.SampleRate
		if rate == 0 {
			rate = 44100
		}
		return hwadc.NewMicADC(rate), nil, nil
	case config.BackendGPIO:
		g := hwadc.NewGPIOADC(cfg.GPIO.Chip, cfg.GPIO.Offset)
		var hook func(entropy.Mode)
		if cfg.GPIO.LEDChip != "" {
			if err := g.SetStatusLED(cfg.GPIO.LEDChip, cfg.GPIO.LEDOffset); err != nil {
				return nil, nil, err
			}
			hook = func(entropy.Mode) { g.FlashStatusLED() }
		}
		return g, hook, nil
	case config.BackendSerial:
		return hwadc.NewSerialADC(cfg.Serial.Device, cfg.Serial.Baud), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func deviceID(cfg config.Config) deviceid.Provider {
	if cfg.DeviceID == "" {
		return deviceid.Host()
	}
	var raw []byte
	if _, err := fmt.Sscanf(cfg.DeviceID, "%x", &raw); err == nil && len(raw) >= deviceid.MinLen {
		return deviceid.Static(raw)
	}
	return deviceid.Host()
}

func parseMode(s string) entropy.Mode {
	switch s {
	case config.ModeRaw:
		return entropy.Raw
	case config.ModeRawData:
		return entropy.RawData
	default:
		return entropy.Conditioned
	}
}

// listCandidateDevices enumerates tty and sound character devices via
// udev, generalizing a TNC's hardware-discovery usage (finding a radio
// or modem) into "find a plausible ADC stand-in".
func listCandidateDevices() error {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("tty"); err != nil {
		return fmt.Errorf("matching tty subsystem: %w", err)
	}
	if err := enum.AddMatchSubsystem("sound"); err != nil {
		return fmt.Errorf("matching sound subsystem: %w", err)
	}

	devices, err := enum.Devices()
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}

	for _, d := range devices {
		devnode := d.Devnode()
		if devnode == "" {
			continue
		}
		fmt.Printf("%-10s %s\n", d.Subsystem(), devnode)
	}
	return nil
}
