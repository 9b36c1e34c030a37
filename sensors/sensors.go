// Package sensors reads the BME280 next to the clock, so the status page
// can double as a room thermometer.
package sensors

import (
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/trace"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/wiener-uhr/clock/status"
	"github.com/wiener-uhr/clock/telemetry"
)

var (
	temperatureGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "room_temperature_celsius",
		Help: "temperature next to the clock",
	})
	humidityGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "room_humidity_percent",
		Help: "relative humidity next to the clock",
	})
)

// Monitor starts reading the BME280 on the provided bus every 30 seconds.
func Monitor(i2cBus i2c.Bus) error {
	tempOpts := bmxx80.Opts{Temperature: bmxx80.O16x, Pressure: bmxx80.O16x, Humidity: bmxx80.O16x}
	temp, err := bmxx80.NewI2C(i2cBus, 0x76, &tempOpts)
	if err != nil {
		return fmt.Errorf("init bme280: %w", err)
	}
	go func() {
		l := trace.NewEventLog("sensor", "environment")
		defer l.Finish()
		first := true
		log.Printf("starting bme280 loop")
		for {
			if first {
				first = false
			} else {
				time.Sleep(30 * time.Second)
			}
			var e physic.Env
			if err := temp.Sense(&e); err != nil {
				l.Errorf("error: read temperature: %v", err)
				continue
			}
			l.Printf("Temp: %v, Pressure: %v, Humidity: %v", e.Temperature, e.Pressure, e.Humidity)
			celsius := e.Temperature.Celsius()
			humidity := float64(e.Humidity) / float64(physic.PercentRH)
			temperatureGauge.Set(celsius)
			humidityGauge.Set(humidity)
			status.UpdateStatus(status.Status{
				Temperature:    celsius,
				Humidity:       humidity,
				HasEnvironment: true,
			})
			if err := telemetry.Send(fmt.Sprintf("environment temperature=%v,relative_humidity=%v,pressure=%vu %v",
				celsius, humidity, int64(e.Pressure), time.Now().UnixNano())); err != nil {
				l.Errorf("send environment to influx: %v", err)
			}
		}
	}()
	return nil
}
