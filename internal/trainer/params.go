package trainer

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Section is the config section holding trainer parameters.
const Section = "sentencepiece"

// ErrNoSection is returned when the config file has no sentencepiece section.
var ErrNoSection = errors.New("config has no " + Section + " section")

// Params are trainer flags keyed by name without the leading "--".
type Params map[string]string

// LoadParams reads the sentencepiece section of a yaml, toml or json config.
// Keys are lower-cased; nested tables flatten to dotted names.
func LoadParams(path string) (Params, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read trainer config %s: %w", path, err)
	}

	sec := v.Sub(Section)
	if sec == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSection)
	}

	params := make(Params)
	for _, key := range sec.AllKeys() {
		params[key] = formatValue(sec.Get(key))
	}
	return params, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []any:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = formatValue(item)
		}
		return strings.Join(items, ",")
	case []string:
		return strings.Join(x, ",")
	default:
		return fmt.Sprint(x)
	}
}

// BuildArgs renders trainer flags: --input and --model_prefix first, then
// every param in key order. input and model_prefix in params are ignored.
func BuildArgs(input, modelPrefix string, params Params) []string {
	args := []string{"--input=" + input, "--model_prefix=" + modelPrefix}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "input" || k == "model_prefix" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		args = append(args, "--"+k+"="+params[k])
	}
	return args
}
