package config

import "math"

// Settings is the typed view of the configuration read by the camera,
// detectors, motor and navigation controllers.
type Settings struct {
	Camera       CameraSettings       `json:"camera"`
	LineDetector LineDetectorSettings `json:"line_detector"`
	SignDetector SignDetectorSettings `json:"sign_detector"`
	Motor        MotorSettings        `json:"motor"`
	Navigation   NavigationSettings   `json:"navigation"`
}

// CameraSettings holds capture parameters
type CameraSettings struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Framerate int    `json:"framerate"`
	Exposure  string `json:"exposure"`
}

// LineDetectorSettings holds line detection parameters
type LineDetectorSettings struct {
	Threshold int     `json:"threshold"`
	ROIHeight float64 `json:"roi_height"` // share of the frame analysed, from the bottom
}

// SignDetectorSettings holds sign detection parameters
type SignDetectorSettings struct {
	MinWidth            int     `json:"min_width"`
	MinHeight           int     `json:"min_height"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

// MotorSettings holds drive limits
type MotorSettings struct {
	MaxSpeed     float64 `json:"max_speed"`
	MinSpeed     float64 `json:"min_speed"`
	MaxSteering  float64 `json:"max_steering"`
	Acceleration float64 `json:"acceleration"`
}

// NavigationSettings holds navigation timing and speed
type NavigationSettings struct {
	BaseSpeed    float64 `json:"base_speed"`
	StopWaitTime float64 `json:"stop_wait_time"` // seconds
	TurnDuration float64 `json:"turn_duration"`  // seconds
}

// Settings reads the typed view. Keys that are missing or of the wrong type
// fall back to the built-in defaults.
func (s *Store) Settings() Settings {
	d := defaultSettings()
	resolution := s.GetPair("camera.resolution", Pair{int64(d.Camera.Width), int64(d.Camera.Height)})
	minSize := s.GetPair("sign_detector.min_size", Pair{int64(d.SignDetector.MinWidth), int64(d.SignDetector.MinHeight)})

	return Settings{
		Camera: CameraSettings{
			Width:     int(resolution[0]),
			Height:    int(resolution[1]),
			Framerate: int(s.GetInt("camera.framerate", int64(d.Camera.Framerate))),
			Exposure:  s.GetString("camera.exposure", d.Camera.Exposure),
		},
		LineDetector: LineDetectorSettings{
			Threshold: int(s.GetInt("line_detector.threshold", int64(d.LineDetector.Threshold))),
			ROIHeight: s.GetFloat("line_detector.roi_height", d.LineDetector.ROIHeight),
		},
		SignDetector: SignDetectorSettings{
			MinWidth:            int(minSize[0]),
			MinHeight:           int(minSize[1]),
			ConfidenceThreshold: s.GetFloat("sign_detector.confidence_threshold", d.SignDetector.ConfidenceThreshold),
		},
		Motor: MotorSettings{
			MaxSpeed:     s.GetFloat("motor.max_speed", d.Motor.MaxSpeed),
			MinSpeed:     s.GetFloat("motor.min_speed", d.Motor.MinSpeed),
			MaxSteering:  s.GetFloat("motor.max_steering", d.Motor.MaxSteering),
			Acceleration: s.GetFloat("motor.acceleration", d.Motor.Acceleration),
		},
		Navigation: NavigationSettings{
			BaseSpeed:    s.GetFloat("navigation.base_speed", d.Navigation.BaseSpeed),
			StopWaitTime: s.GetFloat("navigation.stop_wait_time", d.Navigation.StopWaitTime),
			TurnDuration: s.GetFloat("navigation.turn_duration", d.Navigation.TurnDuration),
		},
	}
}

func defaultSettings() Settings {
	return Settings{
		Camera:       CameraSettings{Width: 640, Height: 480, Framerate: 30, Exposure: "auto"},
		LineDetector: LineDetectorSettings{Threshold: 127, ROIHeight: 0.5},
		SignDetector: SignDetectorSettings{MinWidth: 30, MinHeight: 30, ConfidenceThreshold: 0.7},
		Motor:        MotorSettings{MaxSpeed: 50, MinSpeed: 10, MaxSteering: 30, Acceleration: 0.5},
		Navigation:   NavigationSettings{BaseSpeed: 30, StopWaitTime: 2, TurnDuration: 1},
	}
}

// GetInt returns the integer at key. A Float with no fractional part is
// accepted, since YAML writes 2.0 as 2 and back.
func (s *Store) GetInt(key string, def int64) int64 {
	switch v := s.Get(key, nil).(type) {
	case Int:
		return int64(v)
	case Float:
		if f := float64(v); f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return int64(f)
		}
	}
	return def
}

// GetFloat returns the number at key; integers are widened.
func (s *Store) GetFloat(key string, def float64) float64 {
	switch v := s.Get(key, nil).(type) {
	case Float:
		return float64(v)
	case Int:
		return float64(v)
	}
	return def
}

// GetString returns the string at key.
func (s *Store) GetString(key, def string) string {
	if v, ok := s.Get(key, nil).(String); ok {
		return string(v)
	}
	return def
}

// GetBool returns the boolean at key.
func (s *Store) GetBool(key string, def bool) bool {
	if v, ok := s.Get(key, nil).(Bool); ok {
		return bool(v)
	}
	return def
}

// GetPair returns the integer pair at key.
func (s *Store) GetPair(key string, def Pair) Pair {
	if v, ok := s.Get(key, nil).(Pair); ok {
		return v
	}
	return def
}
