package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// DefaultEnvPrefix is the environment prefix read by ApplyEnv.
const DefaultEnvPrefix = "PICARX_"

// envSegmentSeparator separates path segments in variable names, since the
// single underscore already appears inside keys such as max_speed.
const envSegmentSeparator = "__"

// ApplyEnv overlays environment variables named PREFIX_SECTION__KEY onto the
// current configuration. PICARX_MOTOR__MAX_SPEED=40 sets motor.max_speed to 40.
// Values are parsed with ParseValue. Nothing is persisted.
func (s *Store) ApplyEnv(prefix string) error {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	overlay, err := EnvOverlay(prefix)
	if err != nil {
		s.logger.Error("failed to read environment overrides", "prefix", prefix, "error", err)
		return err
	}
	if len(overlay) == 0 {
		return nil
	}

	DeepMerge(s.current, overlay)
	s.logger.Info("environment overrides applied", "prefix", prefix, "sections", strings.Join(overlay.Keys(), ","))
	return nil
}

// EnvOverlay collects the variables carrying prefix into a nested Map.
func EnvOverlay(prefix string) (Map, error) {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, prefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, envSegmentSeparator, KeySeparator)
	}

	k := koanf.New(KeySeparator)
	if err := k.Load(env.Provider(prefix, KeySeparator, transform), nil); err != nil {
		return nil, oops.Wrapf(err, "load env %s*", prefix)
	}

	overlay := Map{}
	for _, key := range k.Keys() {
		raw := k.String(key)
		v, err := ParseValue(raw)
		if err != nil {
			return nil, oops.Wrapf(err, "env %s", envName(prefix, key))
		}
		if err := overlay.Assign(key, v); err != nil {
			return nil, oops.Wrapf(err, "env %s", envName(prefix, key))
		}
	}
	return overlay, nil
}

func envName(prefix, key string) string {
	return fmt.Sprintf("%s%s", prefix, strings.ToUpper(strings.ReplaceAll(key, KeySeparator, envSegmentSeparator)))
}
