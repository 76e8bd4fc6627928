//go:build !linux && !darwin && !windows

package indicator

import "github.com/rbright/capsync/internal/config"

func newPlatform(config.IndicatorConfig) (Adapter, error) {
	return nil, ErrUnsupported
}
