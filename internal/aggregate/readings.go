package aggregate

// The vendor nests sensor readings under different paths depending on
// device model and call parameters. Extraction walks a prioritized list
// of known shapes and accepts the first path that resolves to a non-nil
// value; it never assumes one fixed schema.

// readingPaths maps a normalized sensor name to the known vendor JSON
// paths for it, most common shape first.
var readingPaths = map[string][][]string{
	"temperature": {
		{"outdoor", "temperature", "value"},
		{"indoor", "temperature", "value"},
		{"temp_and_humidity_ch1", "temperature", "value"},
		{"temperature", "value"},
		{"tempf"},
	},
	"humidity": {
		{"outdoor", "humidity", "value"},
		{"indoor", "humidity", "value"},
		{"temp_and_humidity_ch1", "humidity", "value"},
		{"humidity", "value"},
	},
	"feels_like": {
		{"outdoor", "feels_like", "value"},
		{"outdoor", "app_temp", "value"},
	},
	"dew_point": {
		{"outdoor", "dew_point", "value"},
	},
	"pressure_relative": {
		{"pressure", "relative", "value"},
		{"indoor", "pressure", "relative", "value"},
	},
	"pressure_absolute": {
		{"pressure", "absolute", "value"},
		{"indoor", "pressure", "absolute", "value"},
	},
	"solar_radiation": {
		{"solar_and_uvi", "solar", "value"},
	},
	"uv_index": {
		{"solar_and_uvi", "uvi", "value"},
	},
	"rainfall_daily": {
		{"rainfall", "daily", "value"},
		{"rainfall_piezo", "daily", "value"},
	},
	"rain_rate": {
		{"rainfall", "rain_rate", "value"},
		{"rainfall_piezo", "rrain_piezo", "value"},
	},
	"wind_speed": {
		{"wind", "wind_speed", "value"},
	},
	"wind_gust": {
		{"wind", "wind_gust", "value"},
	},
	"wind_direction": {
		{"wind", "wind_direction", "value"},
	},
	"soil_moisture_ch1": {
		{"soil_ch1", "soilmoisture", "value"},
		{"soil_ch1", "humidity", "value"},
	},
	"soil_moisture_ch2": {
		{"soil_ch2", "soilmoisture", "value"},
		{"soil_ch2", "humidity", "value"},
	},
	"soil_moisture_ch3": {
		{"soil_ch3", "soilmoisture", "value"},
		{"soil_ch3", "humidity", "value"},
	},
	"soil_moisture_ch4": {
		{"soil_ch4", "soilmoisture", "value"},
		{"soil_ch4", "humidity", "value"},
	},
	"battery": {
		{"battery", "all", "value"},
		{"battery", "sensor", "value"},
	},
}

// ExtractReading resolves one sensor against the payload. The second
// return value reports whether any known path matched.
func ExtractReading(data map[string]any, sensor string) (any, bool) {
	paths, ok := readingPaths[sensor]
	if !ok {
		return nil, false
	}
	for _, path := range paths {
		if v := lookupPath(data, path); v != nil {
			return v, true
		}
	}
	return nil, false
}

// Normalize flattens a vendor payload into sensor -> value for every
// sensor that resolves. Devices without a given sensor simply have no key.
func Normalize(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any)
	for sensor := range readingPaths {
		if v, ok := ExtractReading(data, sensor); ok {
			out[sensor] = v
		}
	}
	return out
}

func lookupPath(data map[string]any, path []string) any {
	var cur any = data
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[key]
		if !ok {
			return nil
		}
	}
	return cur
}
