package units

// UnknownSeaState is returned for values outside the Douglas scale.
const UnknownSeaState = "Unknown"

var seaStateShort = map[int]string{
	0: "Calm (glassy)",
	1: "Calm (rippled)",
	2: "Smooth",
	3: "Slight",
	4: "Moderate",
	5: "Rough",
	6: "Very rough",
	7: "High",
	8: "Very high",
	9: "Phenomenal",
}

var seaStateLong = map[int]string{
	0: "Calm (glassy), no waves",
	1: "Calm (rippled), waves up to 0.1 m",
	2: "Smooth (wavelets), waves 0.1 to 0.5 m",
	3: "Slight, waves 0.5 to 1.25 m",
	4: "Moderate, waves 1.25 to 2.5 m",
	5: "Rough, waves 2.5 to 4 m",
	6: "Very rough, waves 4 to 6 m",
	7: "High, waves 6 to 9 m",
	8: "Very high, waves 9 to 14 m",
	9: "Phenomenal, waves over 14 m",
}

// SeaState returns the terse Douglas sea-state label for code.
func SeaState(code int) string {
	if s, ok := seaStateShort[code]; ok {
		return s
	}
	return UnknownSeaState
}

// SeaStateDescription returns the verbose label including the wave-height band.
func SeaStateDescription(code int) string {
	if s, ok := seaStateLong[code]; ok {
		return s
	}
	return UnknownSeaState
}
