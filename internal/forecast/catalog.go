package forecast

import (
	"fmt"
	"strings"
)

// Package identifies a provider forecast package.
type Package string

const (
	Basic  Package = "basic"
	Wind   Package = "wind"
	Sea    Package = "sea"
	Solar  Package = "solar"
	Agro   Package = "agro"
	Trend  Package = "trend"
	Clouds Package = "clouds"
)

// Packages lists every known package in publishing order.
var Packages = []Package{Basic, Wind, Sea, Solar, Agro, Trend, Clouds}

// Source is the label attached to values this package publishes.
func (p Package) Source() string { return string(p) + "-api" }

// Cadence is the period granularity of a forecast series.
type Cadence string

const (
	Hourly Cadence = "hourly"
	Daily  Cadence = "daily"
)

func (c Cadence) suffix() string {
	if c == Daily {
		return "day"
	}
	return "1h"
}

// Selection is one enabled package at one cadence.
type Selection struct {
	Package Package
	Cadence Cadence
}

// ProviderID is the identifier used in the provider URL, e.g. "wind-1h".
func (s Selection) ProviderID() string {
	return string(s.Package) + "-" + s.Cadence.suffix()
}

func (s Selection) String() string { return s.ProviderID() }

// ParseSelection is the inverse of ProviderID.
func ParseSelection(id string) (Selection, error) {
	name, suffix, ok := strings.Cut(id, "-")
	if !ok {
		return Selection{}, fmt.Errorf("malformed package id %q", id)
	}
	var c Cadence
	switch suffix {
	case "1h":
		c = Hourly
	case "day":
		c = Daily
	default:
		return Selection{}, fmt.Errorf("unknown cadence in package id %q", id)
	}
	return Selection{Package: Package(name), Cadence: c}, nil
}

// Selections is a PackageSelection: the set of enabled packages.
type Selections []Selection

// Filter returns the selections with the given cadence.
func (s Selections) Filter(c Cadence) Selections {
	var out Selections
	for _, sel := range s {
		if sel.Cadence == c {
			out = append(out, sel)
		}
	}
	return out
}

// ProviderIDs joins the provider identifiers with underscores.
func (s Selections) ProviderIDs() string {
	ids := make([]string, len(s))
	for i, sel := range s {
		ids[i] = sel.ProviderID()
	}
	return strings.Join(ids, "_")
}

// Conversion is the unit transformation applied to a raw field.
type Conversion int

const (
	PassThrough Conversion = iota
	ToKelvin               // degrees Celsius
	ToRadians              // degrees
	ToMeters               // millimeters
	ToPascal               // millibar / hPa
	ToRatio                // percent
	SeaState               // Douglas scale code, plus derived labels
	Text                   // string series, copied verbatim
)

// Field is a raw provider field owned by a package.
type Field struct {
	Name       string
	Conversion Conversion
}

func f(name string, c Conversion) Field { return Field{Name: name, Conversion: c} }

// catalog is the package-to-field table. No field name appears under two
// packages of the same cadence, so packages never publish each other's values.
var catalog = map[Cadence]map[Package][]Field{
	Hourly: {
		Basic: {
			f("temperature", ToKelvin),
			f("felttemperature", ToKelvin),
			f("windspeed", PassThrough),
			f("winddirection", ToRadians),
			f("precipitation", ToMeters),
			f("convective_precipitation", PassThrough),
			f("precipitation_probability", ToRatio),
			f("rainspot", Text),
			f("snowfraction", PassThrough),
			f("pictocode", PassThrough),
			f("isdaylight", PassThrough),
			f("uvindex", PassThrough),
			f("relativehumidity", ToRatio),
			f("sealevelpressure", ToPascal),
		},
		Wind: {
			f("gust", PassThrough),
			f("windspeed_80m", PassThrough),
			f("winddirection_80m", ToRadians),
			f("surfaceairpressure", ToPascal),
			f("airdensity", PassThrough),
		},
		Sea: {
			f("significant_wave_height", PassThrough),
			f("mean_wave_direction", ToRadians),
			f("mean_wave_period", PassThrough),
			f("windwave_height", PassThrough),
			f("windwave_mean_period", PassThrough),
			f("windwave_direction", ToRadians),
			f("swell_significant_height", PassThrough),
			f("swell_mean_period", PassThrough),
			f("swell_mean_direction", ToRadians),
			f("sea_surface_temperature", ToKelvin),
			f("surfacecurrent_speed", PassThrough),
			f("surfacecurrent_direction", ToRadians),
			f("douglas_seastate", SeaState),
		},
		Solar: {
			f("ghi_instant", PassThrough),
			f("ghi_backwards", PassThrough),
			f("dni_instant", PassThrough),
			f("dif_instant", PassThrough),
			f("extraterrestrialradiation_instant", PassThrough),
			f("sunshine_time", PassThrough),
			f("zenithangle", ToRadians),
		},
		Agro: {
			f("dewpointtemperature", ToKelvin),
			f("skintemperature", ToKelvin),
			f("soiltemperature_0to10cm", ToKelvin),
			f("soilmoisture_0to10cm", PassThrough),
			f("leafwetnessindex", PassThrough),
			f("evapotranspiration", PassThrough),
			f("referenceevapotranspiration_fao", PassThrough),
		},
		Clouds: {
			f("totalcloudcover", ToRatio),
			f("lowclouds", ToRatio),
			f("midclouds", ToRatio),
			f("highclouds", ToRatio),
			f("visibility", PassThrough),
			f("fog_probability", ToRatio),
		},
	},
	Daily: {
		Basic: {
			f("temperature_max", ToKelvin),
			f("temperature_min", ToKelvin),
			f("temperature_mean", ToKelvin),
			f("felttemperature_max", ToKelvin),
			f("felttemperature_min", ToKelvin),
			f("windspeed_max", PassThrough),
			f("windspeed_min", PassThrough),
			f("windspeed_mean", PassThrough),
			f("winddirection", ToRadians),
			f("precipitation", ToMeters),
			f("precipitation_probability", ToRatio),
			f("precipitation_hours", PassThrough),
			f("rainspot", Text),
			f("pictocode", PassThrough),
			f("uvindex", PassThrough),
			f("relativehumidity_max", ToRatio),
			f("relativehumidity_min", ToRatio),
			f("relativehumidity_mean", ToRatio),
			f("sealevelpressure_max", ToPascal),
			f("sealevelpressure_min", ToPascal),
			f("sealevelpressure_mean", ToPascal),
		},
		Wind: {
			f("gust_max", PassThrough),
			f("gust_min", PassThrough),
			f("gust_mean", PassThrough),
			f("windspeed_80m_max", PassThrough),
			f("windspeed_80m_mean", PassThrough),
			f("winddirection_80m", ToRadians),
		},
		Sea: {
			f("significant_wave_height_max", PassThrough),
			f("significant_wave_height_min", PassThrough),
			f("significant_wave_height_mean", PassThrough),
			f("mean_wave_direction", ToRadians),
			f("swell_significant_height_max", PassThrough),
			f("sea_surface_temperature_max", ToKelvin),
			f("sea_surface_temperature_min", ToKelvin),
			f("sea_surface_temperature_mean", ToKelvin),
			f("surfacecurrent_speed_max", PassThrough),
			f("douglas_seastate_max", SeaState),
		},
		Solar: {
			f("ghi_total", PassThrough),
			f("dni_total", PassThrough),
			f("dif_total", PassThrough),
			f("extraterrestrialradiation_total", PassThrough),
			f("sunshine_time", PassThrough),
		},
		Agro: {
			f("dewpointtemperature_mean", ToKelvin),
			f("soiltemperature_0to10cm_mean", ToKelvin),
			f("soilmoisture_0to10cm_mean", PassThrough),
			f("leafwetnessindex", PassThrough),
			f("evapotranspiration", PassThrough),
			f("referenceevapotranspiration_fao", PassThrough),
		},
		Trend: {
			f("predictability", ToRatio),
			f("predictability_class", PassThrough),
			f("temperature_spread", PassThrough),
			f("precipitation_spread", PassThrough),
			f("windspeed_spread", PassThrough),
		},
		Clouds: {
			f("totalcloudcover_max", ToRatio),
			f("totalcloudcover_min", ToRatio),
			f("totalcloudcover_mean", ToRatio),
			f("lowclouds_mean", ToRatio),
			f("midclouds_mean", ToRatio),
			f("highclouds_mean", ToRatio),
			f("visibility_mean", PassThrough),
		},
	},
}

// Fields returns the fields pkg owns at cadence c. Unknown packages (or a
// package with no series at that cadence, e.g. hourly trend) yield nil.
func Fields(pkg Package, c Cadence) []Field {
	return catalog[c][pkg]
}

// Supported reports whether the provider offers pkg at cadence c.
func Supported(pkg Package, c Cadence) bool {
	return len(Fields(pkg, c)) > 0
}
