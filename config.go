package footprints

import (
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// OptionsKeyPath is the configuration key path holding process-wide
// operation defaults.
//
// Recognized sub-keys:
//   - defaultLimit: integer pagination ceiling for structured finds
//   - populate: list of {attribute, criteria} eager-load directives
const OptionsKeyPath = "footprints.models.options"

// Defaults holds process-wide operation defaults merged into every call.
// Caller-supplied options always win; see Options.withDefaults.
type Defaults struct {
	// Limit is the pagination ceiling applied to structured criteria that
	// carry no explicit limit. Zero disables the ceiling.
	Limit int

	// Populate directives appended to every find for attributes the caller
	// did not populate themselves.
	Populate []PopulateDirective
}

// LoadDefaults reads Defaults from the OptionsKeyPath of a koanf tree.
// Missing keys yield zero values; a malformed tree is an ErrInvalidConfig.
func LoadDefaults(k *koanf.Koanf) (Defaults, error) {
	var d Defaults
	if k == nil {
		return d, nil
	}

	d.Limit = k.Int(OptionsKeyPath + ".defaultLimit")
	if d.Limit < 0 {
		return Defaults{}, WithContext(ErrInvalidConfig, map[string]interface{}{
			"key":    OptionsKeyPath + ".defaultLimit",
			"value":  d.Limit,
			"reason": "must be non-negative",
		})
	}

	for _, sub := range k.Slices(OptionsKeyPath + ".populate") {
		attr := sub.String("attribute")
		if attr == "" {
			return Defaults{}, WithContext(ErrInvalidConfig, map[string]interface{}{
				"key":    OptionsKeyPath + ".populate",
				"reason": "populate entry missing attribute",
			})
		}
		dir := PopulateDirective{Attribute: attr}
		if where, ok := sub.Get("criteria").(map[string]interface{}); ok {
			dir.Criteria = Where(where)
		}
		d.Populate = append(d.Populate, dir)
	}

	return d, nil
}

// DefaultsFromMap reads Defaults from a plain key-value configuration map.
// Keys may be nested maps or dotted paths.
func DefaultsFromMap(values map[string]interface{}) (Defaults, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return Defaults{}, err
	}
	return LoadDefaults(k)
}

// DefaultsFromEnv reads Defaults from FOOTPRINTS_* environment variables.
//
//	FOOTPRINTS_DEFAULT_LIMIT=30
func DefaultsFromEnv() (Defaults, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("FOOTPRINTS_", ".", func(s string) string {
		if s == "FOOTPRINTS_DEFAULT_LIMIT" {
			return OptionsKeyPath + ".defaultLimit"
		}
		return strings.ToLower(strings.TrimPrefix(s, "FOOTPRINTS_"))
	}), nil)
	if err != nil {
		return Defaults{}, err
	}
	return LoadDefaults(k)
}
