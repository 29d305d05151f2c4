package settings

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/alnah/go-scholar/internal/dateutil"
)

// Policy selects how keys outside the schema are handled.
type Policy int

const (
	// Permissive warns once per unknown key and keeps it out of Settings.
	// The values stay readable through Resolution.Unknown.
	Permissive Policy = iota
	// Strict rejects unknown keys as validation failures.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "permissive"
}

// Resolver folds an ordered source list into validated Settings.
type Resolver struct {
	// Sources in precedence order, highest first.
	Sources []Source

	// CWD anchors relative paths and the computed cache directory.
	CWD string

	Policy Policy

	// Warn receives permissive unknown-key warnings. May be nil.
	Warn func(msg string)

	// Now expands "auto" dates. Defaults to time.Now.
	Now func() time.Time
}

// Resolution is the outcome of a successful resolve.
type Resolution struct {
	Settings Settings

	// Sources holds every queried source, in resolution order.
	Sources []SourceRecord

	// Origins maps each resolved leaf path to the source that set it.
	Origins map[string]string

	// Unknown holds the keys outside the schema, by dotted path, with the
	// value from the highest precedence source that set them. Only filled
	// under Permissive.
	Unknown map[string]any

	// Warnings repeats the messages passed to Warn.
	Warnings []string
}

// Resolve queries every source, merges, decodes and validates.
// Provider errors (for example ErrConfigNotFound) are returned as is;
// decode and validation failures are returned as *SettingsError.
func (r *Resolver) Resolve() (*Resolution, error) {
	res := &Resolution{Origins: map[string]string{}, Unknown: map[string]any{}}
	merged := map[string]any{}
	var issues []string

	for _, src := range r.Sources {
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("%s source: %w", src.Name, err)
		}
		if data == nil {
			data = map[string]any{}
		}
		res.Sources = append(res.Sources, SourceRecord{Name: src.Name, Data: data})

		unknown := UnknownKeys(data)
		for _, p := range unknown {
			if r.Policy == Strict {
				issues = append(issues, fmt.Sprintf("unknown key %q (from %s)", p, src.Name))
				continue
			}
			if _, seen := res.Unknown[p]; !seen {
				if v, ok := lookupPath(data, p); ok {
					res.Unknown[p] = deepCopy(v)
				}
			}
			msg := fmt.Sprintf("unknown settings key %q from %s ignored", p, src.Name)
			res.Warnings = append(res.Warnings, msg)
			if r.Warn != nil {
				r.Warn(msg)
			}
		}

		mergeFirstWins(merged, prune(data, unknown), "", src.Name, res.Origins)
	}

	fail := func(err error) (*Resolution, error) {
		return nil, &SettingsError{Err: err, Sources: res.Sources}
	}

	if len(issues) > 0 {
		return fail(&ValidationError{Issues: issues})
	}

	s, err := decode(merged)
	if err != nil {
		return fail(err)
	}
	if s.References == nil {
		s.References = map[string]string{}
	}
	s.TitlePage = absolute(s.TitlePage, r.CWD)
	s.Assets.Dir = absolute(s.Assets.Dir, r.CWD)

	if date, err := dateutil.Resolve(s.Date, r.now(), s.Lang); err != nil {
		issues = append(issues, "date: "+err.Error())
	} else {
		s.Date = date
	}
	if err := Validate(s, r.CWD); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return fail(err)
		}
		issues = append(issues, ve.Issues...)
	}
	if len(issues) > 0 {
		return fail(&ValidationError{Issues: issues})
	}

	res.Settings = s
	return res, nil
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func decode(m map[string]any) (Settings, error) {
	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringerToStringHook(),
			numberToDurationHook(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return Settings{}, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func absolute(p, cwd string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}

// stringerToStringHook renders dates and other typed scalars produced by
// the YAML and TOML parsers as strings when the target field is a string.
func stringerToStringHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.String {
			return data, nil
		}
		switch v := data.(type) {
		case time.Time:
			if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
				return v.Format(time.DateOnly), nil
			}
			return v.Format(time.RFC3339), nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return data, nil
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// numberToDurationHook rejects bare numbers for duration fields. Without it
// "timeout: 30" decodes to 30ns. Zero stays allowed since it is unambiguous.
func numberToDurationHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != durationType || from == durationType {
			return data, nil
		}
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
		default:
			return data, nil
		}
		if reflect.ValueOf(data).IsZero() {
			return time.Duration(0), nil
		}
		return nil, fmt.Errorf("want a duration string like 90s, got %v", data)
	}
}
