package weather

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Units carries the Open-Meteo request parameters and display symbols for
// one unit system.
type Units struct {
	TemperatureUnit   string
	WindSpeedUnit     string
	PrecipitationUnit string
	TempSymbol        string
	WindSymbol        string
	PrecipSymbol      string
}

// UnitsFor returns the unit set for "metric"; any other value falls back
// to imperial.
func UnitsFor(system string) Units {
	if system == "metric" {
		return Units{
			TemperatureUnit:   "celsius",
			WindSpeedUnit:     "kmh",
			PrecipitationUnit: "mm",
			TempSymbol:        "°C",
			WindSymbol:        "km/h",
			PrecipSymbol:      "mm",
		}
	}
	return Units{
		TemperatureUnit:   "fahrenheit",
		WindSpeedUnit:     "mph",
		PrecipitationUnit: "inch",
		TempSymbol:        "°F",
		WindSymbol:        "mph",
		PrecipSymbol:      "in",
	}
}

type currentResponse struct {
	TimezoneAbbreviation string `json:"timezone_abbreviation"`
	Current              struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		FeelsLike     float64 `json:"apparent_temperature"`
		Precipitation float64 `json:"precipitation"`
		Rain          float64 `json:"rain"`
		Showers       float64 `json:"showers"`
		Snowfall      float64 `json:"snowfall"`
		WeatherCode   int     `json:"weather_code"`
		CloudCover    float64 `json:"cloud_cover"`
		Pressure      float64 `json:"pressure_msl"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindGusts     float64 `json:"wind_gusts_10m"`
	} `json:"current"`
}

type forecastResponse struct {
	Daily struct {
		Time                     []string  `json:"time"`
		WeatherCode              []int     `json:"weather_code"`
		TemperatureMax           []float64 `json:"temperature_2m_max"`
		TemperatureMin           []float64 `json:"temperature_2m_min"`
		Sunrise                  []string  `json:"sunrise"`
		Sunset                   []string  `json:"sunset"`
		UVIndexMax               []float64 `json:"uv_index_max"`
		PrecipitationSum         []float64 `json:"precipitation_sum"`
		PrecipitationProbability []float64 `json:"precipitation_probability_max"`
		WindSpeedMax             []float64 `json:"wind_speed_10m_max"`
		WindGustsMax             []float64 `json:"wind_gusts_10m_max"`
	} `json:"daily"`
}

// Current fetches and renders the current weather report for a city.
func (c *Client) Current(ctx context.Context, city string, units Units) (string, error) {
	loc, err := c.Geocode(ctx, city)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("latitude", formatCoord(loc.Latitude))
	query.Set("longitude", formatCoord(loc.Longitude))
	query.Set("current", strings.Join([]string{
		"temperature_2m", "relative_humidity_2m", "apparent_temperature",
		"precipitation", "rain", "showers", "snowfall", "weather_code",
		"cloud_cover", "pressure_msl", "wind_speed_10m", "wind_direction_10m",
		"wind_gusts_10m",
	}, ","))
	query.Set("timezone", loc.Timezone)
	query.Set("temperature_unit", units.TemperatureUnit)
	query.Set("wind_speed_unit", units.WindSpeedUnit)
	query.Set("precipitation_unit", units.PrecipitationUnit)
	query.Set("forecast_days", "1")

	var data currentResponse
	if err := c.getJSON(ctx, c.forecastURL, query, &data); err != nil {
		return "", err
	}

	cur := data.Current
	var report strings.Builder
	fmt.Fprintf(&report, "Current weather for %s as of %s %s:\n\n",
		city, formatClock(cur.Time), data.TimezoneAbbreviation)
	fmt.Fprintf(&report, "**Conditions:** %s\n", ConditionText(cur.WeatherCode))
	fmt.Fprintf(&report, "**Temperature:** %d%s (Feels like %d%s)\n",
		roundInt(cur.Temperature), units.TempSymbol, roundInt(cur.FeelsLike), units.TempSymbol)
	fmt.Fprintf(&report, "**Humidity:** %d%%\n", roundInt(cur.Humidity))
	fmt.Fprintf(&report, "**Cloud Cover:** %d%%\n", roundInt(cur.CloudCover))
	fmt.Fprintf(&report, "**Pressure:** %.1f hPa\n", cur.Pressure)
	fmt.Fprintf(&report, "**Wind:** %d %s, gusts to %d %s",
		roundInt(cur.WindSpeed), units.WindSymbol, roundInt(cur.WindGusts), units.WindSymbol)

	if cur.Precipitation > 0 || cur.Rain > 0 || cur.Showers > 0 || cur.Snowfall > 0 {
		report.WriteString("\n**Precipitation:**")
		if cur.Rain > 0 {
			fmt.Fprintf(&report, "\n• Rain: %s %s", formatAmount(cur.Rain), units.PrecipSymbol)
		}
		if cur.Showers > 0 {
			fmt.Fprintf(&report, "\n• Showers: %s %s", formatAmount(cur.Showers), units.PrecipSymbol)
		}
		if cur.Snowfall > 0 {
			fmt.Fprintf(&report, "\n• Snow: %s %s", formatAmount(cur.Snowfall), units.PrecipSymbol)
		}
	}

	return report.String(), nil
}

// Forecast fetches and renders a multi-day forecast. days is clamped to
// the 1..16 range Open-Meteo supports.
func (c *Client) Forecast(ctx context.Context, city string, days int, units Units) (string, error) {
	if days < 1 {
		days = 1
	}
	if days > 16 {
		days = 16
	}

	loc, err := c.Geocode(ctx, city)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("latitude", formatCoord(loc.Latitude))
	query.Set("longitude", formatCoord(loc.Longitude))
	query.Set("daily", strings.Join([]string{
		"weather_code", "temperature_2m_max", "temperature_2m_min",
		"sunrise", "sunset", "uv_index_max", "precipitation_sum",
		"precipitation_probability_max", "wind_speed_10m_max",
		"wind_gusts_10m_max",
	}, ","))
	query.Set("timezone", loc.Timezone)
	query.Set("temperature_unit", units.TemperatureUnit)
	query.Set("wind_speed_unit", units.WindSpeedUnit)
	query.Set("precipitation_unit", units.PrecipitationUnit)
	query.Set("forecast_days", strconv.Itoa(days))

	var data forecastResponse
	if err := c.getJSON(ctx, c.forecastURL, query, &data); err != nil {
		return "", err
	}

	daily := data.Daily
	lines := []string{fmt.Sprintf("**%d-Day Weather Forecast for %s**\n", days, city)}

	for i := range daily.Time {
		day, err := time.Parse("2006-01-02", daily.Time[i])
		if err != nil {
			return "", fmt.Errorf("failed to parse forecast date %q: %w", daily.Time[i], err)
		}

		var dateStr string
		switch i {
		case 0:
			dateStr = fmt.Sprintf("**Today** (%s)", day.Format("Mon, Jan 02"))
		case 1:
			dateStr = fmt.Sprintf("**Tomorrow** (%s)", day.Format("Mon, Jan 02"))
		default:
			dateStr = fmt.Sprintf("**%s**", day.Format("Monday, Jan 02"))
		}

		var b strings.Builder
		fmt.Fprintf(&b, "\n%s\n", dateStr)
		fmt.Fprintf(&b, "• %s\n", ConditionText(at(daily.WeatherCode, i)))
		fmt.Fprintf(&b, "• High: %d%s / Low: %d%s\n",
			roundInt(atF(daily.TemperatureMax, i)), units.TempSymbol,
			roundInt(atF(daily.TemperatureMin, i)), units.TempSymbol)
		fmt.Fprintf(&b, "• Sunrise: %s / Sunset: %s\n",
			formatClock(atS(daily.Sunrise, i)), formatClock(atS(daily.Sunset, i)))
		fmt.Fprintf(&b, "• UV Index: %.1f\n", atF(daily.UVIndexMax, i))
		fmt.Fprintf(&b, "• Precipitation: %d%% chance", roundInt(atF(daily.PrecipitationProbability, i)))
		if sum := atF(daily.PrecipitationSum, i); sum > 0 {
			fmt.Fprintf(&b, " (%s %s expected)", formatAmount(sum), units.PrecipSymbol)
		}
		fmt.Fprintf(&b, "\n• Wind: Max %d %s, gusts to %d %s",
			roundInt(atF(daily.WindSpeedMax, i)), units.WindSymbol,
			roundInt(atF(daily.WindGustsMax, i)), units.WindSymbol)

		lines = append(lines, b.String())
	}

	return strings.Join(lines, "\n"), nil
}

// formatClock renders an Open-Meteo "2006-01-02T15:04" timestamp as a
// 12-hour clock time.
func formatClock(timestamp string) string {
	t, err := time.Parse("2006-01-02T15:04", timestamp)
	if err != nil {
		return timestamp
	}
	return t.Format("03:04 PM")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatAmount renders a precipitation amount rounded to two decimals
// without trailing zeros.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// Slice guards: Open-Meteo's parallel daily arrays should be equal
// length, but a missing field decodes to an empty slice.
func at(s []int, i int) int {
	if i < len(s) {
		return s[i]
	}
	return -1
}

func atF(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func atS(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
