package binding

import (
	"reflect"
	"strings"

	"github.com/Station-Manager/configdi"
	"github.com/Station-Manager/configdi/config"
)

// LiteralsFrom returns a literal provider that satisfies missing string dependencies from cfg.
// Dependency ids arrive lower-cased, so keys are matched exactly first and case-insensitively after.
func LiteralsFrom(cfg config.Config) configdi.LiteralProvider {
	return func(id string, targetType reflect.Type) (any, bool, error) {
		if cfg == nil || targetType.Kind() != reflect.String {
			return nil, false, nil
		}
		if v, ok := config.GetString(cfg, id); ok {
			return reflect.ValueOf(v).Convert(targetType).Interface(), true, nil
		}
		for _, k := range cfg.Keys() {
			if strings.EqualFold(k, id) {
				v, _ := config.GetString(cfg, k)
				return reflect.ValueOf(v).Convert(targetType).Interface(), true, nil
			}
		}
		return nil, false, nil
	}
}
