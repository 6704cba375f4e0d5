package sensor

import "HomelyBridge/pkg/homelyapi"

// assume all batteries are 3V
const batteryVoltageFactor = 33.33333

// DeviceReading is the read model of one Homely device, carrying only
// the measurements this bridge exposes
type DeviceReading struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ModelName   string   `json:"model_name"`
	Location    string   `json:"location,omitempty"`
	Online      bool     `json:"online"`
	Temperature *float64 `json:"temperature,omitempty"`
	Battery     *float64 `json:"battery,omitempty"`
	BatteryLow  bool     `json:"battery_low,omitempty"`
}

// ReadDevices projects the device list of a Home onto DeviceReadings
func ReadDevices(devices []homelyapi.Device) []DeviceReading {
	readings := make([]DeviceReading, 0, len(devices))
	for _, d := range devices {
		r := DeviceReading{
			ID:        d.ID,
			Name:      d.Name,
			ModelName: d.ModelName,
			Location:  d.Location,
			Online:    d.Online,
		}
		if t := d.Features.Temperature; t != nil {
			value := t.States.Temperature.Value
			r.Temperature = &value
		}
		if b := d.Features.Battery; b != nil {
			percent := BatteryPercent(b.States.Voltage.Value)
			r.Battery = &percent
			r.BatteryLow = b.States.Low.Value
		}
		readings = append(readings, r)
	}
	return readings
}

// BatteryPercent derives a battery level from the reported voltage,
// clamped to [0, 100]
func BatteryPercent(voltage float64) float64 {
	percent := voltage * batteryVoltageFactor
	if percent > 100 {
		return 100
	}
	if percent < 0 {
		return 0
	}
	return percent
}
