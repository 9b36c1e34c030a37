package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jrockway/periphflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/extra/hostextra"
	hostv3 "periph.io/x/host/v3"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"

	"github.com/wiener-uhr/clock/face"
	"github.com/wiener-uhr/clock/history"
	"github.com/wiener-uhr/clock/screen"
	"github.com/wiener-uhr/clock/sensors"
	"github.com/wiener-uhr/clock/status"
	"github.com/wiener-uhr/clock/telemetry"
	"github.com/wiener-uhr/clock/timesource"
)

var (
	bind           = flag.String("bind", ":8080", "address to bind for debug/metrics server")
	displayBackend = flag.String("display", "apa102", "display backend: apa102, dotstar, or none")
	dotstarDev     = flag.String("dotstar-dev", "/dev/spidev0.0", "spidev device for the dotstar backend")
	envFile        = flag.String("env", "", "env file with influxdb credentials; empty tries ./.env")
	dbFile         = flag.String("db", "wordclock.db", "database file for the phrase/sync log; empty to disable")
	backgrounds    = flag.String("backgrounds", "", "directory of monthly background BMPs; empty to disable")
	nightStart     = flag.Int("night-start", 16, "hour at which the display dims for the night")
	nightEnd       = flag.Int("night-end", 8, "hour at which the display brightens in the morning")
	gpsdAddr       = flag.String("gpsd", "", "address of a gpsd to prefer as the time source; empty to disable")
	ntpServer      = flag.String("ntp-server", "pool.ntp.org", "NTP server to measure the system clock against; empty to disable")
	ntpInterval    = flag.Duration("ntp-interval", time.Hour, "how often to run the NTP check")
	i2cBus         = flag.String("i2c", "", "i2c bus with the bme280 on it; empty to disable the room sensor")
	spiDev         string
)

func main() {
	if _, err := hostextra.Init(); err != nil {
		log.Fatalf("init periph.io: %v", err)
	}
	periphflag.SPIDevVar(&spiDev, "spi", "", "spi bus that the apa102 panel is on")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("load env file %q: %v", *envFile, err)
		}
	} else {
		godotenv.Load()
	}
	telemetry.Configure(os.Getenv("INFLUXDB_URL"), os.Getenv("INFLUXDB_TOKEN"))

	var db *history.DB
	if *dbFile != "" {
		var err error
		db, err = history.Open(*dbFile)
		if err != nil {
			log.Fatalf("open history database %q: %v", *dbFile, err)
		}
	}

	var display face.Display
	var blank func() error
	switch *displayBackend {
	case "apa102", "none":
		var port spi.Port
		if *displayBackend == "apa102" {
			p, err := spireg.Open(spiDev)
			if err != nil {
				log.Fatalf("open spi port %q: %v", spiDev, err)
			}
			port = p
		}
		scr, err := screen.NewScreen(port)
		if err != nil {
			log.Fatalf("init screen: %v", err)
		}
		http.Handle("/display.png", scr)
		display, blank = scr, scr.Blank
	case "dotstar":
		d, err := screen.NewDotstar(*dotstarDev)
		if err != nil {
			log.Fatalf("init dotstar: %v", err)
		}
		display, blank = d, d.Blank
	default:
		log.Fatalf("unknown display backend %q", *displayBackend)
	}
	blank()

	ctx, cancel := context.WithCancel(context.Background())

	source := &timesource.Fallback{}
	if *gpsdAddr != "" {
		g := &timesource.GPSD{MaxAge: 5 * time.Minute}
		go timesource.WatchGPSD(*gpsdAddr, g)
		source.Sources = append(source.Sources, g)
	}
	source.Sources = append(source.Sources, timesource.System{})

	if *ntpServer != "" {
		m := &timesource.NTPMonitor{Server: *ntpServer, Interval: *ntpInterval, History: db}
		go m.Watch(ctx)
	}

	if *i2cBus != "" {
		if _, err := hostv3.Init(); err != nil {
			log.Fatalf("init periph.io host: %v", err)
		}
		bus, err := i2creg.Open(*i2cBus)
		if err != nil {
			log.Fatalf("open i2c bus %q: %v", *i2cBus, err)
		}
		if err := sensors.Monitor(bus); err != nil {
			log.Fatalf("init sensors: %v", err)
		}
	}

	renderer := face.NewRenderer(screen.Width, screen.Height)
	renderer.BackgroundDir = *backgrounds
	renderer.NightStart = *nightStart
	renderer.NightEnd = *nightEnd

	http.HandleFunc("/", status.ServeStatus)
	http.Handle("/metrics", promhttp.Handler())

	httpDoneCh := make(chan error)
	httpServer := http.Server{Addr: *bind}
	go func() {
		log.Printf("http server listening on %s", httpServer.Addr)
		err := httpServer.ListenAndServe()
		select {
		case httpDoneCh <- err:
		case <-ctx.Done():
		}
		close(httpDoneCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	cl := &face.Clock{
		Source:   source,
		Display:  display,
		Renderer: renderer,
		History:  db,
	}
	loopDoneCh := make(chan error)
	go func() {
		err := cl.Run(ctx)
		select {
		case loopDoneCh <- err:
		case <-ctx.Done():
		}
		close(loopDoneCh)
	}()

	httpAlive := true
	select {
	case err := <-httpDoneCh:
		log.Printf("http server died: %v", err)
		httpAlive = false
	case err := <-loopDoneCh:
		log.Printf("clock loop died: %v", err)
	case <-sigCh:
		log.Printf("interrupt")
	}
	signal.Stop(sigCh)
	cancel()
	blank()
	if httpAlive {
		tctx, c := context.WithTimeout(context.Background(), time.Second)
		httpServer.Shutdown(tctx)
		c()
	}
	os.Exit(1)
}
