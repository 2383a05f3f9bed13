package config

// DefaultFile is the configuration file used when no path is given.
const DefaultFile = "config.yaml"

// DefaultValues returns a fresh copy of the built-in configuration.
func DefaultValues() Map {
	return Map{
		"camera": Map{
			"resolution": Pair{640, 480},
			"framerate":  Int(30),
			"exposure":   String("auto"),
		},
		"line_detector": Map{
			"threshold":  Int(127),
			"roi_height": Float(0.5), // share of the frame analysed
		},
		"sign_detector": Map{
			"min_size":             Pair{30, 30},
			"confidence_threshold": Float(0.7),
		},
		"motor": Map{
			"max_speed":    Int(50),
			"min_speed":    Int(10),
			"max_steering": Int(30),
			"acceleration": Float(0.5),
		},
		"navigation": Map{
			"base_speed":     Int(30),
			"stop_wait_time": Int(2),
			"turn_duration":  Int(1),
		},
	}
}
